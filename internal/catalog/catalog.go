// Package catalog holds the reference disease signatures that uploads are
// matched against, grouped by crop type.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoCatalog = errors.New("no reference signatures for crop type")

type Contrast string

const (
	ContrastLow    Contrast = "low"
	ContrastMedium Contrast = "medium"
	ContrastHigh   Contrast = "high"
)

type Pattern string

const (
	PatternUniform   Pattern = "uniform"
	PatternSpotted   Pattern = "spotted"
	PatternDotted    Pattern = "dotted"
	PatternIrregular Pattern = "irregular"
	PatternDamaged   Pattern = "damaged"
)

type ColorProfile struct {
	RedMean   float64 `json:"red_mean"`
	GreenMean float64 `json:"green_mean"`
	BlueMean  float64 `json:"blue_mean"`
}

type TextureDescriptor struct {
	Contrast Contrast `json:"contrast"`
	Pattern  Pattern  `json:"patterns"`
}

type Treatment struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	ApplicationRate string  `json:"application_rate"`
	Effectiveness   float64 `json:"effectiveness"`
	EcoFriendly     bool    `json:"eco_friendly"`
}

// Signature is the expected appearance of one disease on one crop. Label is
// the stable result key; Name is for display only.
type Signature struct {
	Label       string            `json:"label"`
	CropType    string            `json:"crop_type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Severity    string            `json:"severity"`
	Color       ColorProfile      `json:"color_features"`
	Texture     TextureDescriptor `json:"texture_features"`
	Treatments  []Treatment       `json:"treatments,omitempty"`
}

type Dataset struct {
	Name     string `json:"name"`
	CropType string `json:"crop_type"`
	Source   string `json:"source"`
}

// Provider supplies the signatures for a crop type. Implementations return
// ErrNoCatalog when the crop is unknown or has no signatures.
type Provider interface {
	Signatures(ctx context.Context, cropType string) ([]Signature, error)
}

// Memory is a Provider over a fixed set of signatures. It is never mutated
// after construction, so concurrent readers need no locking.
type Memory struct {
	byCrop map[string][]Signature
}

func NewMemory(signatures []Signature) (*Memory, error) {
	m := &Memory{byCrop: make(map[string][]Signature)}

	labels := make(map[string]struct{}, len(signatures))
	for _, sig := range signatures {
		if err := validate(sig); err != nil {
			return nil, err
		}
		if _, dup := labels[sig.Label]; dup {
			return nil, fmt.Errorf("duplicate signature label %q", sig.Label)
		}
		labels[sig.Label] = struct{}{}

		crop := normalizeCrop(sig.CropType)
		m.byCrop[crop] = append(m.byCrop[crop], sig)
	}

	return m, nil
}

func (m *Memory) Signatures(ctx context.Context, cropType string) ([]Signature, error) {
	sigs := m.byCrop[normalizeCrop(cropType)]
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoCatalog, cropType)
	}
	out := make([]Signature, len(sigs))
	copy(out, sigs)
	return out, nil
}

func validate(sig Signature) error {
	if sig.Label == "" {
		return fmt.Errorf("signature %q missing label", sig.Name)
	}
	if sig.CropType == "" {
		return fmt.Errorf("signature %s missing crop type", sig.Label)
	}
	switch sig.Texture.Contrast {
	case ContrastLow, ContrastMedium, ContrastHigh:
	default:
		return fmt.Errorf("signature %s has unknown contrast %q", sig.Label, sig.Texture.Contrast)
	}
	switch sig.Texture.Pattern {
	case PatternUniform, PatternSpotted, PatternDotted, PatternIrregular, PatternDamaged:
	default:
		return fmt.Errorf("signature %s has unknown pattern %q", sig.Label, sig.Texture.Pattern)
	}
	return nil
}

func normalizeCrop(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}

// IsEcoFriendly reports the eco flag the seed data derives from a product
// name: anything chlorinated is not.
func IsEcoFriendly(productName string) bool {
	return !strings.Contains(strings.ToLower(productName), "chlor")
}
