// ABOUTME: Tests for PriceStore bounded random-walk behavior.
// ABOUTME: Covers floors, pool positivity, atomic replacement, concurrency.

package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceStore_DefaultSeed(t *testing.T) {
	p := NewPriceStore(PriceSnapshot{})

	snap := p.Get()
	assert.Equal(t, 1.00, snap.Senior)
	assert.Equal(t, 1.00, snap.Junior)
	assert.Equal(t, 1.00, snap.Equity)
	assert.Equal(t, int64(5_000_000), snap.TotalPool)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestPriceStore_TickRespectsFloors(t *testing.T) {
	p := NewPriceStore(PriceSnapshot{
		Senior:    SeniorFloor,
		Junior:    JuniorFloor,
		Equity:    EquityFloor,
		Yields:    TrancheYields{Senior: 0.045, Junior: 0.082, Equity: 0.145},
		TotalPool: 1_000_000,
	})

	for range 10_000 {
		snap := p.Tick()
		require.GreaterOrEqual(t, snap.Senior, SeniorFloor)
		require.GreaterOrEqual(t, snap.Junior, JuniorFloor)
		require.GreaterOrEqual(t, snap.Equity, EquityFloor)
		require.Positive(t, snap.TotalPool)
		require.Positive(t, snap.Yields.Senior)
		require.Positive(t, snap.Yields.Junior)
		require.Positive(t, snap.Yields.Equity)
	}
}

func TestPriceStore_TickBoundsDrift(t *testing.T) {
	p := NewPriceStore(PriceSnapshot{})

	prev := p.Get()
	for range 100 {
		next := p.Tick()
		assert.InEpsilon(t, prev.Senior, next.Senior, maxTickDrift*2)
		assert.InEpsilon(t, prev.Junior, next.Junior, maxTickDrift*2)
		assert.InEpsilon(t, prev.Equity, next.Equity, maxTickDrift*2)
		prev = next
	}
}

func TestPriceStore_TickReplacesSnapshot(t *testing.T) {
	p := NewPriceStore(PriceSnapshot{})

	ticked := p.Tick()
	got := p.Get()
	assert.Equal(t, ticked, got, "Get must return the snapshot Tick installed")
}

func TestPriceStore_ConcurrentTickAndGet(t *testing.T) {
	p := NewPriceStore(PriceSnapshot{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 500 {
				p.Tick()
			}
		})
		wg.Go(func() {
			for range 500 {
				snap := p.Get()
				require.Positive(t, snap.TotalPool)
			}
		})
	}
	wg.Wait()
}
