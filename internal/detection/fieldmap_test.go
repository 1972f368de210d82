package detection

import (
	"reflect"
	"testing"

	"github.com/kdimtricp/leafscan/internal/catalog"
)

func TestGenerateMaturityField(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		g := NewFieldMapGenerator(NewRand(seed))
		fm := g.Generate([]string{LabelMaturity, "coconut_leaf_spot"}, catalog.CropCoconut)

		if !fm.IsMaturityAnalysis {
			t.Fatalf("seed %d: expected maturity analysis field", seed)
		}
		if fm.Grid[5][5] != 3 {
			t.Fatalf("seed %d: centre cell = %d, want 3", seed, fm.Grid[5][5])
		}

		centre := fm.Hotspots[0]
		if centre.X != 5 || centre.Y != 5 || centre.Label != LabelMaturity || centre.Maturity != ReadyForHarvest {
			t.Fatalf("seed %d: unexpected centre hotspot %+v", seed, centre)
		}

		neighbours := fm.Hotspots[1:]
		if len(neighbours) < minNeighbourTrees || len(neighbours) > maxNeighbourTrees {
			t.Fatalf("seed %d: %d neighbours outside [5,9]", seed, len(neighbours))
		}

		seen := map[[2]int]bool{{5, 5}: true}
		for _, h := range neighbours {
			dx, dy := h.X-5, h.Y-5
			if dx*dx+dy*dy <= 4 {
				t.Errorf("seed %d: neighbour %+v too close to centre", seed, h)
			}
			if seen[[2]int{h.X, h.Y}] {
				t.Errorf("seed %d: neighbour %+v placed on occupied cell", seed, h)
			}
			seen[[2]int{h.X, h.Y}] = true

			if fm.Grid[h.Y][h.X] != maturityCell[h.Maturity] {
				t.Errorf("seed %d: grid %d does not match maturity %s", seed, fm.Grid[h.Y][h.X], h.Maturity)
			}
			if h.Label != labelNone {
				t.Errorf("seed %d: neighbour label %q, want none", seed, h.Label)
			}
		}
	}
}

func TestGenerateDiseaseField(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		crop     string
		hotspots int
	}{
		{"single disease", []string{"cotton_leaf_spot"}, catalog.CropCotton, 2},
		{"two diseases", []string{"cotton_leaf_spot", "cotton_boll_rot"}, catalog.CropCotton, 4},
		{"capped at five", []string{"a", "b", "c"}, catalog.CropCotton, 5},
		{"healthy ignored", []string{LabelHealthy, "cotton_boll_rot"}, catalog.CropCotton, 2},
		{"maturity on cotton is filtered", []string{LabelMaturity, "cotton_boll_rot"}, catalog.CropCotton, 2},
		{"only healthy", []string{LabelHealthy}, catalog.CropCotton, 0},
		{"error result", []string{LabelError}, catalog.CropCoconut, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := NewFieldMapGenerator(NewRand(7)).Generate(tt.labels, tt.crop)

			if fm.IsMaturityAnalysis {
				t.Error("disease field flagged as maturity analysis")
			}
			if fm.Hotspots == nil {
				t.Error("hotspots must be an empty list, not nil")
			}
			if len(fm.Hotspots) != tt.hotspots {
				t.Fatalf("expected %d hotspots, got %d", tt.hotspots, len(fm.Hotspots))
			}

			marked := 0
			for y := range fm.Grid {
				for x := range fm.Grid[y] {
					switch fm.Grid[y][x] {
					case 0:
					case 1:
						marked++
					default:
						t.Errorf("unexpected cell value %d", fm.Grid[y][x])
					}
				}
			}
			if marked > tt.hotspots || (tt.hotspots > 0 && marked == 0) {
				t.Errorf("%d marked cells for %d hotspots", marked, tt.hotspots)
			}

			for _, h := range fm.Hotspots {
				if !contains(tt.labels, h.Label) || h.Label == LabelHealthy || h.Label == LabelMaturity {
					t.Errorf("unexpected hotspot label %q", h.Label)
				}
				if fm.Grid[h.Y][h.X] != 1 {
					t.Errorf("hotspot %+v not marked on grid", h)
				}
			}
		})
	}
}

func TestGenerateDiseaseFieldAllowsCollisions(t *testing.T) {
	g := NewFieldMapGenerator(&scriptedRand{ints: []int{3, 4, 0}})
	fm := g.Generate([]string{"cotton_leaf_spot"}, catalog.CropCotton)

	expected := []Hotspot{
		{X: 3, Y: 4, Label: "cotton_leaf_spot"},
		{X: 3, Y: 4, Label: "cotton_leaf_spot"},
	}
	if !reflect.DeepEqual(fm.Hotspots, expected) {
		t.Errorf("expected %+v, got %+v", expected, fm.Hotspots)
	}
	if fm.Grid[4][3] != 1 {
		t.Errorf("expected grid[4][3] marked")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	labels := []string{LabelMaturity}
	a := NewFieldMapGenerator(NewRand(42)).Generate(labels, catalog.CropCoconut)
	b := NewFieldMapGenerator(NewRand(42)).Generate(labels, catalog.CropCoconut)

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different fields")
	}
}
