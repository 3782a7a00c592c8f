// ABOUTME: PriceStore owns the live tranche price snapshot.
// ABOUTME: Tick installs a bounded random-walk perturbation, never below floor.

package store

import (
	"math/rand"
	"sync"
	"time"
)

// Per-tranche price floors. A tick may drift prices down but never
// through these bounds.
const (
	SeniorFloor = 0.98
	JuniorFloor = 0.92
	EquityFloor = 0.85
)

// maxTickDrift bounds the relative price change applied by one tick.
const maxTickDrift = 0.002

// TrancheYields holds the annualized yield per tranche.
type TrancheYields struct {
	Senior float64 `json:"senior"`
	Junior float64 `json:"junior"`
	Equity float64 `json:"equity"`
}

// PriceSnapshot is an immutable point-in-time copy of tranche pricing.
// Exactly one snapshot is live at a time; Tick replaces it atomically.
type PriceSnapshot struct {
	Senior    float64       `json:"senior"`
	Junior    float64       `json:"junior"`
	Equity    float64       `json:"equity"`
	Yields    TrancheYields `json:"yields"`
	TotalPool int64         `json:"totalPool"`
	Timestamp time.Time     `json:"timestamp"`
}

// PriceStore owns the current tranche price snapshot.
type PriceStore struct {
	mu      sync.Mutex
	current PriceSnapshot
	rng     *rand.Rand
}

// NewPriceStore creates a store seeded with the given starting snapshot.
// A zero-value seed is replaced with the default demo pool.
func NewPriceStore(seed PriceSnapshot) *PriceStore {
	if seed.TotalPool <= 0 {
		seed = PriceSnapshot{
			Senior:    1.00,
			Junior:    1.00,
			Equity:    1.00,
			Yields:    TrancheYields{Senior: 0.045, Junior: 0.082, Equity: 0.145},
			TotalPool: 5_000_000,
		}
	}
	seed.Timestamp = time.Now()
	return &PriceStore{
		current: seed,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get returns the live snapshot.
func (p *PriceStore) Get() PriceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Tick computes a perturbed copy of the live snapshot, installs it
// atomically, and returns it. Each price moves by at most maxTickDrift
// relative and is clamped to its tranche floor; the pool size stays
// positive.
func (p *PriceStore) Tick() PriceSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.current
	next.Senior = clampFloor(p.perturb(next.Senior), SeniorFloor)
	next.Junior = clampFloor(p.perturb(next.Junior), JuniorFloor)
	next.Equity = clampFloor(p.perturb(next.Equity), EquityFloor)

	next.Yields.Senior = clampFloor(p.perturbYield(next.Yields.Senior), 0.001)
	next.Yields.Junior = clampFloor(p.perturbYield(next.Yields.Junior), 0.001)
	next.Yields.Equity = clampFloor(p.perturbYield(next.Yields.Equity), 0.001)

	// Pool drifts by up to 0.1% per tick but never goes non-positive.
	delta := int64(float64(next.TotalPool) * (p.rng.Float64() - 0.5) * 0.002)
	if next.TotalPool+delta > 0 {
		next.TotalPool += delta
	}

	next.Timestamp = time.Now()
	p.current = next
	return next
}

// perturb applies a symmetric bounded relative drift. Must be called
// with mu held (rng is not goroutine-safe).
func (p *PriceStore) perturb(v float64) float64 {
	return v * (1 + (p.rng.Float64()-0.5)*2*maxTickDrift)
}

// perturbYield applies a small absolute drift to a yield figure.
func (p *PriceStore) perturbYield(v float64) float64 {
	return v + (p.rng.Float64()-0.5)*0.001
}

func clampFloor(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}
