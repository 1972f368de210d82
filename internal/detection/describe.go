package detection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kdimtricp/leafscan/internal/catalog"
)

var genericTreatment = catalog.Treatment{
	Name:        "General Fungicide",
	Description: "Broad-spectrum fungicide effective against multiple diseases.",
	EcoFriendly: true,
}

// Describe turns ranked results into display records. Catalog labels get
// their stored details and treatments; anything the catalog no longer knows
// falls back to a generic entry.
func (s *Service) Describe(ctx context.Context, res Result) []DiseaseInfo {
	var byLabel map[string]catalog.Signature
	lookup := func(label string) (catalog.Signature, bool) {
		if byLabel == nil {
			byLabel = map[string]catalog.Signature{}
			sigs, err := s.provider.Signatures(ctx, res.CropType)
			if err != nil {
				s.logger.WarnContext(ctx, "no signatures to describe results",
					slog.String("crop_type", res.CropType),
					slog.String("error", err.Error()))
			}
			for _, sig := range sigs {
				byLabel[sig.Label] = sig
			}
		}
		sig, ok := byLabel[label]
		return sig, ok
	}

	infos := make([]DiseaseInfo, 0, len(res.Results))
	for _, c := range res.Results {
		info := DiseaseInfo{
			Label:                 c.Label,
			Confidence:            c.Confidence,
			RecommendedPesticides: []catalog.Treatment{},
		}

		switch c.Label {
		case LabelHealthy:
			info.Name = "Healthy Plant"
			info.Description = "No disease detected."
		case LabelError:
			info.Name = "Detection Error"
			info.Description = "Unable to process the image."
		case LabelMaturity:
			info.Name = "Coconut Maturity Analysis"
			info.Maturity = c.Maturity
			info.Description = maturityNarrative(c.Maturity)
		default:
			if sig, ok := lookup(c.Label); ok {
				info.Name = sig.Name
				info.Description = sig.Description
				info.Severity = sig.Severity
				info.RecommendedPesticides = append(info.RecommendedPesticides, sig.Treatments...)
			} else {
				info.Name = displayName(c.Label)
				info.Description = "Unknown plant disease detected."
				info.RecommendedPesticides = append(info.RecommendedPesticides, genericTreatment)
			}
		}

		infos = append(infos, info)
	}
	return infos
}

func maturityNarrative(m *Maturity) string {
	if m == nil {
		return "Unable to determine maturity level accurately."
	}

	switch m.Level {
	case Immature:
		return fmt.Sprintf("The coconut trees are still immature. Approximately %d coconuts detected, but they are not ready for harvest yet. Continue regular care and monitoring.", m.EstimatedCount)
	case Mature:
		return fmt.Sprintf("The coconut trees are mature with approximately %d coconuts detected. They will be ready for harvest soon. Continue monitoring for optimal harvest time.", m.EstimatedCount)
	case ReadyForHarvest:
		return fmt.Sprintf("The coconut trees are ready for harvest! Approximately %d coconuts detected at optimal maturity. Recommend harvesting within the next 1-2 weeks.", m.EstimatedCount)
	default:
		return fmt.Sprintf("Unable to determine maturity level accurately. Approximately %d coconuts detected.", m.EstimatedCount)
	}
}

// displayName turns "cotton_leaf_curl" into "Leaf Curl". The leading crop
// segment is dropped when there is more than one segment.
func displayName(label string) string {
	parts := strings.Split(label, "_")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
