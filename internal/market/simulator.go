package market

import (
	"math/rand"
	"sync"
	"time"
)

// Simulator produces bounded random-walk candle series and per-second price
// perturbations. It stands in for a live feed: it seeds charts when the feed
// has no candles for a symbol and animates crypto/forex quotes between feed
// refreshes. Stock quotes backed by a live feed must never pass through it.
//
// The sma20/ema50 it writes are jittered approximations of the close, not
// real moving averages. That is intentional for fake data; candles from a
// real feed get true indicators via ApplyIndicators instead.
type Simulator struct {
	mu       sync.Mutex // rand.Rand is not safe for concurrent use
	rng      *rand.Rand
	vol      float64
	rollProb float64
}

// NewSimulator creates a simulator. volatilityFactor scales per-step moves
// relative to the base price (0.005 by default); rollProbability is the
// per-tick chance of opening a new candle instead of extending the active one.
func NewSimulator(seed int64, volatilityFactor, rollProbability float64) *Simulator {
	if volatilityFactor <= 0 {
		volatilityFactor = 0.005
	}
	if rollProbability <= 0 {
		rollProbability = 0.05
	}
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)),
		vol:      volatilityFactor,
		rollProb: rollProbability,
	}
}

// Seed produces a points-long series for symbol walking from basePrice,
// one hourly candle per step ending at now.
func (s *Simulator) Seed(symbol string, basePrice float64, points, bound int) *ChartSeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := NewChartSeries(symbol, bound)
	volatility := basePrice * s.vol
	price := basePrice
	now := time.Now()

	for i := 0; i < points; i++ {
		at := now.Add(-time.Duration(points-i) * time.Hour)
		open := price
		close := price + (s.rng.Float64()-0.5)*volatility
		high := maxf(open, close) + s.rng.Float64()*(volatility/2)
		low := minf(open, close) - s.rng.Float64()*(volatility/2)
		volume := 500000 + s.rng.Float64()*1000000
		price = close

		series.Append(Candle{
			Time:   at,
			Label:  at.Format("15:04"),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
			SMA20:  close * (1 + (s.rng.Float64()*0.02 - 0.01)),
			EMA50:  close * (1 + (s.rng.Float64()*0.04 - 0.02)),
		})
	}
	return series
}

// Tick advances the series by one simulated second: usually a small in-place
// move of the active candle's close (at most 0.1%), occasionally a roll to a
// new candle opening at the previous close. Returns the new close and whether
// a new candle was opened.
func (s *Simulator) Tick(series *ChartSeries) (newClose float64, rolled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := series.Active()
	if !ok {
		return 0, false
	}

	if s.rng.Float64() < s.rollProb {
		series.RollNewCandle(active.Close, time.Now())
		return active.Close, true
	}

	delta := (s.rng.Float64() - 0.5) * 2 * 0.001 * active.Close
	volume := s.rng.Float64() * 10000
	return series.ExtendActive(delta, volume), false
}

// PerturbPrice nudges a bare quote price by at most 0.1%, for symbols that
// are being simulated but have no chart series open.
func (s *Simulator) PerturbPrice(price float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return price + (s.rng.Float64()-0.5)*2*0.001*price
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
