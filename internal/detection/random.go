package detection

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source for every non-deterministic draw (coconut count and
// field placement). Tests pin outputs by injecting a seeded source.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source seeded with seed.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// between draws uniformly from [lo, hi], both inclusive.
func between(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
