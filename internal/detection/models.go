package detection

import (
	"github.com/kdimtricp/leafscan/internal/catalog"
)

// Pseudo-labels that never name a catalog signature.
const (
	LabelHealthy  = "healthy"
	LabelError    = "error"
	LabelMaturity = "maturity_analysis"
	labelNone     = "none"
)

type MaturityLevel string

const (
	Immature        MaturityLevel = "immature"
	Mature          MaturityLevel = "mature"
	ReadyForHarvest MaturityLevel = "ready_for_harvest"
)

// Maturity is attached to the coconut maturity pseudo-candidate.
type Maturity struct {
	Level          MaturityLevel `json:"maturity_level"`
	EstimatedCount int           `json:"coconut_count"`
	HarvestReady   bool          `json:"harvest_ready"`
}

// Breakdown keeps the three sub-scores a signature candidate was built from.
type Breakdown struct {
	Color   float64 `json:"color"`
	Texture float64 `json:"texture"`
	Shape   float64 `json:"shape"`
}

type ScoredCandidate struct {
	Label      string     `json:"disease_key"`
	Name       string     `json:"disease_name,omitempty"`
	Similarity float64    `json:"similarity"`
	Confidence float64    `json:"confidence"`
	Breakdown  *Breakdown `json:"breakdown,omitempty"`
	Maturity   *Maturity  `json:"maturity_data,omitempty"`
}

func newCandidate(label, name string, similarity float64) ScoredCandidate {
	return ScoredCandidate{
		Label:      label,
		Name:       name,
		Similarity: similarity,
		Confidence: similarity * 100,
	}
}

const FieldSize = 10

type Hotspot struct {
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Label    string        `json:"disease"`
	Maturity MaturityLevel `json:"maturity,omitempty"`
}

type FieldMap struct {
	Grid               [FieldSize][FieldSize]int `json:"grid"`
	Hotspots           []Hotspot                 `json:"hotspots"`
	IsMaturityAnalysis bool                      `json:"is_maturity_analysis"`
}

// Result is everything Detect hands back to its caller. Err carries the
// cause behind an error result for logging; callers branch on Results only.
type Result struct {
	CropType  string            `json:"crop_type"`
	Results   []ScoredCandidate `json:"results"`
	FieldMap  FieldMap          `json:"field_data"`
	ImageHash string            `json:"image_hash,omitempty"`
	Err       error             `json:"-"`
}

// Labels returns the result labels in rank order.
func (r Result) Labels() []string {
	labels := make([]string, len(r.Results))
	for i, c := range r.Results {
		labels[i] = c.Label
	}
	return labels
}

// Confidences returns the result confidences in rank order.
func (r Result) Confidences() []float64 {
	out := make([]float64, len(r.Results))
	for i, c := range r.Results {
		out[i] = c.Confidence
	}
	return out
}

// DiseaseInfo is a result enriched with catalog details for display.
type DiseaseInfo struct {
	Label                 string              `json:"disease_key"`
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	Confidence            float64             `json:"confidence"`
	Severity              string              `json:"severity,omitempty"`
	Maturity              *Maturity           `json:"maturity_data,omitempty"`
	RecommendedPesticides []catalog.Treatment `json:"recommended_pesticides"`
}
