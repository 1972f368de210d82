package detection

import (
	"math"

	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/features"
)

// Sub-score weights. Colour is the most reliable cheap signal.
const (
	ColorWeight   = 0.6
	TextureWeight = 0.25
	ShapeWeight   = 0.15
)

const (
	baseSubScore    = 0.8
	matchedSubScore = 0.9

	// Full-scale sum of the three channel differences.
	maxColorDistance = 255.0

	highContrastStd   = 40.0
	mediumContrastStd = 25.0

	edgyDensity = 0.1
)

// ColorSimilarity compares channel means by normalised Manhattan distance.
func ColorSimilarity(fv features.FeatureVector, ref catalog.ColorProfile) float64 {
	diff := math.Abs(fv.RedMean-ref.RedMean) +
		math.Abs(fv.GreenMean-ref.GreenMean) +
		math.Abs(fv.BlueMean-ref.BlueMean)

	return clamp01(1 - math.Min(diff/maxColorDistance, 1.0))
}

// ContrastBucket maps a red-channel standard deviation to its contrast bucket.
func ContrastBucket(redStd float64) catalog.Contrast {
	switch {
	case redStd > highContrastStd:
		return catalog.ContrastHigh
	case redStd > mediumContrastStd:
		return catalog.ContrastMedium
	default:
		return catalog.ContrastLow
	}
}

func TextureSimilarity(redStd float64, contrast catalog.Contrast) float64 {
	if ContrastBucket(redStd) == contrast {
		return matchedSubScore
	}
	return baseSubScore
}

func ShapeSimilarity(edgeDensity float64, pattern catalog.Pattern) float64 {
	switch {
	case edgeDensity > edgyDensity && (pattern == catalog.PatternSpotted || pattern == catalog.PatternDotted):
		return matchedSubScore
	case edgeDensity <= edgyDensity && pattern == catalog.PatternUniform:
		return matchedSubScore
	}
	return baseSubScore
}

// Score rates how closely fv matches a single signature.
func Score(fv features.FeatureVector, sig catalog.Signature) ScoredCandidate {
	b := Breakdown{
		Color:   ColorSimilarity(fv, sig.Color),
		Texture: TextureSimilarity(fv.RedStd, sig.Texture.Contrast),
		Shape:   ShapeSimilarity(fv.EdgeDensity, sig.Texture.Pattern),
	}

	overall := ColorWeight*b.Color + TextureWeight*b.Texture + ShapeWeight*b.Shape

	c := newCandidate(sig.Label, sig.Name, clamp01(overall))
	c.Breakdown = &b
	return c
}

// ScoreAll scores every signature, preserving catalog order.
func ScoreAll(fv features.FeatureVector, sigs []catalog.Signature) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, Score(fv, sig))
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
