package detection

import (
	"github.com/kdimtricp/leafscan/internal/features"
)

const (
	matureRatio        = 1.1
	harvestEdgeDensity = 0.15

	// Simulated sensor noise added to the edge-based count.
	minCountNoise = 5
	maxCountNoise = 15
	maxCount      = 35
)

// AnalyzeMaturity estimates coconut maturity from the red/green balance and
// edge density. EstimatedCount includes a random offset from rng, so two
// calls on the same features may disagree.
func AnalyzeMaturity(fv features.FeatureVector, rng Rand) Maturity {
	ratio := 1.0
	if fv.GreenMean > 0 {
		ratio = fv.RedMean / fv.GreenMean
	}

	m := Maturity{Level: Immature}
	if ratio > matureRatio {
		m.Level = Mature
		if fv.EdgeDensity > harvestEdgeDensity {
			m.Level = ReadyForHarvest
			m.HarvestReady = true
		}
	}

	count := int(fv.EdgeDensity*100) + between(rng, minCountNoise, maxCountNoise)
	m.EstimatedCount = max(0, min(count, maxCount))

	return m
}
