package market

import "errors"

// True windowed indicators for candles that came from a real feed. The
// simulator's jittered sma20/ema50 never go through here.

// SMA computes the simple moving average of the trailing period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average over the full input, seeded
// with the SMA of the first period values and smoothed by 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for EMA calculation")
	}
	seed, err := SMA(values[:period], period)
	if err != nil {
		return 0, err
	}
	k := 2.0 / float64(period+1)
	ema := seed
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
	}
	return ema, nil
}

// ApplyIndicators fills SMA20 and EMA50 on each candle from the closes that
// precede it, leaving candles without enough history untouched.
func ApplyIndicators(candles []Candle) {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	for i := range candles {
		if sma, err := SMA(closes[:i+1], 20); err == nil {
			candles[i].SMA20 = sma
		}
		if ema, err := EMA(closes[:i+1], 50); err == nil {
			candles[i].EMA50 = ema
		}
	}
}
