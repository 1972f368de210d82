package detection

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/features"
	"github.com/kdimtricp/leafscan/internal/models"
	"github.com/mdobak/go-xerrors"
)

const (
	// HealthySimilarity is assigned when the colour balance looks healthy.
	HealthySimilarity  = 0.85
	MaturitySimilarity = 0.95
	// FallbackSimilarity backs the default-to-healthy answer when nothing
	// clears the threshold. It is deliberately not HealthySimilarity.
	FallbackSimilarity = 0.90

	MatchThreshold = 0.6
	MaxResults     = 3

	healthyGreenMin = 120
	healthyRedMax   = 100

	historyTimeout = 5 * time.Second
)

// HistoryLog receives one audit record per scored request. Appends must be
// independent inserts so parallel requests never interfere.
type HistoryLog interface {
	Append(ctx context.Context, rec *models.DetectionRecord) error
}

type Ranker struct {
	rng     Rand
	history HistoryLog
	logger  *slog.Logger
}

func NewRanker(rng Rand, history HistoryLog, logger *slog.Logger) *Ranker {
	if rng == nil {
		rng = globalRand{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{rng: rng, history: history, logger: logger}
}

// Candidates appends the pseudo-candidates to the scored signatures, in the
// fixed order healthy, then maturity.
func (r *Ranker) Candidates(fv features.FeatureVector, cropType string, scored []ScoredCandidate) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(scored)+2)
	out = append(out, scored...)

	if fv.GreenMean > healthyGreenMin && fv.RedMean < healthyRedMax {
		out = append(out, newCandidate(LabelHealthy, "Healthy Plant", HealthySimilarity))
	}

	if cropType == catalog.CropCoconut {
		m := AnalyzeMaturity(fv, r.rng)
		c := newCandidate(LabelMaturity, "Maturity Analysis", MaturitySimilarity)
		c.Maturity = &m
		out = append(out, c)
	}

	return out
}

// Rank orders the candidates, records the request and returns the final
// result list: one to three matches above the threshold, or the healthy
// fallback.
func (r *Ranker) Rank(ctx context.Context, fv features.FeatureVector, cropType, imageHash string, scored []ScoredCandidate) []ScoredCandidate {
	candidates := r.Candidates(fv, cropType, scored)
	SortCandidates(candidates)

	r.record(ctx, cropType, imageHash, candidates)

	return Threshold(candidates)
}

// SortCandidates sorts by similarity, highest first. Ties keep their order.
func SortCandidates(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
}

// Threshold keeps sorted candidates above MatchThreshold, at most MaxResults.
func Threshold(sorted []ScoredCandidate) []ScoredCandidate {
	matches := make([]ScoredCandidate, 0, MaxResults)
	for _, c := range sorted {
		if c.Similarity > MatchThreshold {
			matches = append(matches, c)
			if len(matches) == MaxResults {
				break
			}
		}
	}

	if len(matches) == 0 {
		return []ScoredCandidate{fallbackHealthy()}
	}
	return matches
}

func fallbackHealthy() ScoredCandidate {
	return ScoredCandidate{
		Label:      LabelHealthy,
		Name:       "Healthy Plant",
		Similarity: FallbackSimilarity,
		Confidence: 90.0,
	}
}

func (r *Ranker) record(ctx context.Context, cropType, imageHash string, sorted []ScoredCandidate) {
	if r.history == nil {
		return
	}

	top := sorted[:min(len(sorted), MaxResults)]
	labels := make([]string, len(top))
	scores := make([]float64, len(top))
	for i, c := range top {
		labels[i] = c.Label
		scores[i] = c.Confidence
	}

	rec := models.NewDetectionRecord(cropType, labels, scores, imageHash)

	// The audit write must not be cut short by the request deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if err := r.history.Append(ctx, rec); err != nil {
		r.logger.ErrorContext(ctx, "failed to store detection history",
			slog.String("crop_type", cropType),
			slog.String("image_hash", imageHash),
			slog.Any("error", xerrors.New(err)))
		return
	}
	r.logger.DebugContext(ctx, "stored detection history", slog.String("id", rec.ID))
}
