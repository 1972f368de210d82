package detection

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/kdimtricp/leafscan/internal/catalog"
	"github.com/kdimtricp/leafscan/internal/models"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// signature returns the default catalog entry for label.
func signature(t *testing.T, cropType, label string) catalog.Signature {
	t.Helper()
	sigs, err := catalog.Default().Signatures(context.Background(), cropType)
	if err != nil {
		t.Fatalf("loading %s signatures: %v", cropType, err)
	}
	for _, sig := range sigs {
		if sig.Label == label {
			return sig
		}
	}
	t.Fatalf("%s missing from default catalog", label)
	return catalog.Signature{}
}

type mockHistory struct {
	mu      sync.Mutex
	records []*models.DetectionRecord
	err     error
}

func (m *mockHistory) Append(ctx context.Context, rec *models.DetectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// scriptedRand replays fixed draws in order, wrapping around when exhausted.
type scriptedRand struct {
	ints   []int
	floats []float64
	i, f   int
}

func (s *scriptedRand) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.i%len(s.ints)]
	s.i++
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.f%len(s.floats)]
	s.f++
	return v
}

type panicProvider struct{}

func (panicProvider) Signatures(ctx context.Context, cropType string) ([]catalog.Signature, error) {
	panic("catalog exploded")
}

type errProvider struct{}

func (errProvider) Signatures(ctx context.Context, cropType string) ([]catalog.Signature, error) {
	return nil, errors.New("database unavailable")
}
