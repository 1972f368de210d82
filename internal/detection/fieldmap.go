package detection

import (
	"github.com/kdimtricp/leafscan/internal/catalog"
)

const (
	minNeighbourTrees = 5
	maxNeighbourTrees = 9
	maxPlacementTries = 1000

	// Squared distance from the centre inside which no neighbour is placed.
	centreClearance = 4

	hotspotsPerDisease = 2
	maxDiseaseHotspots = 5

	cellEmpty   = 0
	cellHotspot = 1
)

var maturityCell = map[MaturityLevel]int{
	Immature:        1,
	Mature:          2,
	ReadyForHarvest: 3,
}

// FieldMapGenerator lays ranked labels out on a synthetic field for display.
// It has no influence on the diagnosis.
type FieldMapGenerator struct {
	rng Rand
}

func NewFieldMapGenerator(rng Rand) *FieldMapGenerator {
	if rng == nil {
		rng = globalRand{}
	}
	return &FieldMapGenerator{rng: rng}
}

func (g *FieldMapGenerator) Generate(labels []string, cropType string) FieldMap {
	if cropType == catalog.CropCoconut && contains(labels, LabelMaturity) {
		return g.maturityField()
	}
	return g.diseaseField(labels)
}

func (g *FieldMapGenerator) maturityField() FieldMap {
	fm := FieldMap{IsMaturityAnalysis: true}
	cx, cy := FieldSize/2, FieldSize/2

	fm.Grid[cy][cx] = maturityCell[ReadyForHarvest]
	fm.Hotspots = append(fm.Hotspots, Hotspot{X: cx, Y: cy, Label: LabelMaturity, Maturity: ReadyForHarvest})

	trees := between(g.rng, minNeighbourTrees, maxNeighbourTrees)
	for i := 0; i < trees; i++ {
		for try := 0; try < maxPlacementTries; try++ {
			x := g.rng.IntN(FieldSize)
			y := g.rng.IntN(FieldSize)
			dx, dy := x-cx, y-cy
			if fm.Grid[y][x] != cellEmpty || dx*dx+dy*dy <= centreClearance {
				continue
			}

			level := g.pickMaturity()
			fm.Grid[y][x] = maturityCell[level]
			fm.Hotspots = append(fm.Hotspots, Hotspot{X: x, Y: y, Label: labelNone, Maturity: level})
			break
		}
	}

	return fm
}

// pickMaturity draws immature 30%, mature 40%, ready for harvest 30%.
func (g *FieldMapGenerator) pickMaturity() MaturityLevel {
	f := g.rng.Float64()
	switch {
	case f < 0.3:
		return Immature
	case f < 0.7:
		return Mature
	default:
		return ReadyForHarvest
	}
}

func (g *FieldMapGenerator) diseaseField(labels []string) FieldMap {
	fm := FieldMap{Hotspots: []Hotspot{}}

	diseases := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != LabelHealthy && l != LabelError && l != LabelMaturity {
			diseases = append(diseases, l)
		}
	}
	if len(diseases) == 0 {
		return fm
	}

	n := min(len(diseases)*hotspotsPerDisease, maxDiseaseHotspots)
	for i := 0; i < n; i++ {
		x := g.rng.IntN(FieldSize)
		y := g.rng.IntN(FieldSize)
		label := diseases[g.rng.IntN(len(diseases))]

		fm.Grid[y][x] = cellHotspot
		fm.Hotspots = append(fm.Hotspots, Hotspot{X: x, Y: y, Label: label})
	}

	return fm
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
