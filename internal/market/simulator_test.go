package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulator_Seed(t *testing.T) {
	sim := NewSimulator(1, 0.005, 0.05)

	series := sim.Seed("BTC/USD", 98450, 50, 50)

	assert.Equal(t, 50, series.Len())
	assertEnvelope(t, series)

	// The walk is bounded: each step moves at most volatility/2 from the
	// previous close, so 50 steps stay within a loose band of the base.
	for _, c := range series.Candles() {
		assert.InDelta(t, 98450.0, c.Close, 98450*0.005*50)
	}
}

func TestSimulator_Seed_Deterministic(t *testing.T) {
	a := NewSimulator(7, 0.005, 0.05).Seed("AAPL", 100, 20, 50)
	b := NewSimulator(7, 0.005, 0.05).Seed("AAPL", 100, 20, 50)

	ca, cb := a.Candles(), b.Candles()
	for i := range ca {
		assert.Equal(t, ca[i].Close, cb[i].Close)
	}
}

func TestSimulator_Tick_BoundedMove(t *testing.T) {
	sim := NewSimulator(42, 0.005, 0) // rollProb 0 defaults to 0.05; force ticks below
	series := sim.Seed("ETH/USD", 3350, 50, 50)

	for i := 0; i < 200; i++ {
		before, _ := series.Active()
		newClose, rolled := sim.Tick(series)
		assertEnvelope(t, series)

		if rolled {
			// A rolled candle opens at the previous close.
			active, _ := series.Active()
			assert.Equal(t, before.Close, active.Open)
			assert.LessOrEqual(t, series.Len(), 50)
			continue
		}
		// In-place moves are capped at 0.1% of the close.
		assert.LessOrEqual(t, math.Abs(newClose-before.Close), before.Close*0.001+1e-9)
	}
}

func TestSimulator_Tick_EmptySeries(t *testing.T) {
	sim := NewSimulator(1, 0.005, 0.05)
	series := NewChartSeries("X", 50)

	newClose, rolled := sim.Tick(series)
	assert.Equal(t, 0.0, newClose)
	assert.False(t, rolled)
}

func TestSimulator_PerturbPrice(t *testing.T) {
	sim := NewSimulator(3, 0.005, 0.05)
	for i := 0; i < 100; i++ {
		p := sim.PerturbPrice(1000)
		assert.InDelta(t, 1000, p, 1.0000001) // ≤ 0.1%
	}
}
