package market

import "time"

// Candle is one OHLCV bar for a symbol over a time bucket.
type Candle struct {
	Time   time.Time `json:"-"`
	Label  string    `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	SMA20  float64   `json:"sma20,omitempty"`
	EMA50  float64   `json:"ema50,omitempty"`
}

// clamp re-establishes the OHLC envelope after Close moved.
func (c *Candle) clamp() {
	if c.High < c.Open {
		c.High = c.Open
	}
	if c.High < c.Close {
		c.High = c.Close
	}
	if c.Low > c.Open {
		c.Low = c.Open
	}
	if c.Low > c.Close {
		c.Low = c.Close
	}
}

// ChartSeries is a bounded, oldest-first sequence of candles for one symbol.
// Only the last candle (the active candle) is ever mutated; once a new candle
// is rolled, all earlier ones are immutable. When the bound is exceeded the
// oldest candle is evicted.
type ChartSeries struct {
	Symbol  string
	bound   int
	candles []Candle
}

// NewChartSeries creates an empty series for symbol holding at most bound candles.
func NewChartSeries(symbol string, bound int) *ChartSeries {
	if bound <= 0 {
		bound = DefaultSeriesBound
	}
	return &ChartSeries{Symbol: symbol, bound: bound, candles: make([]Candle, 0, bound)}
}

// Series bounds per displayed time range. A wider range shows more candles,
// not older ones; there is no historical store behind a range switch.
const (
	DefaultSeriesBound = 50
	WeekSeriesBound    = 100
	MonthSeriesBound   = 150
)

// BoundForRange maps a UI time range to a series bound.
func BoundForRange(timeRange string) int {
	switch timeRange {
	case "1W":
		return WeekSeriesBound
	case "1M", "3M", "1Y":
		return MonthSeriesBound
	default:
		return DefaultSeriesBound
	}
}

// Append adds a fully-formed candle, evicting from the front past the bound.
// Used when seeding from the simulator or from a feed response.
func (s *ChartSeries) Append(c Candle) {
	c.clamp()
	s.candles = append(s.candles, c)
	if len(s.candles) > s.bound {
		s.candles = s.candles[len(s.candles)-s.bound:]
	}
}

// ExtendActive mutates the active candle in place: Close moves by closeDelta,
// High/Low stretch to keep the OHLC envelope valid, Volume grows by volumeDelta.
// No-op on an empty series. Returns the new close.
func (s *ChartSeries) ExtendActive(closeDelta, volumeDelta float64) float64 {
	if len(s.candles) == 0 {
		return 0
	}
	c := &s.candles[len(s.candles)-1]
	c.Close += closeDelta
	c.Volume += volumeDelta
	c.clamp()
	return c.Close
}

// RollNewCandle closes the active candle and appends a fresh one opening at
// openPrice. The evicted-oldest bound is enforced here as well.
func (s *ChartSeries) RollNewCandle(openPrice float64, at time.Time) {
	s.Append(Candle{
		Time:  at,
		Label: at.Format("15:04"),
		Open:  openPrice,
		High:  openPrice,
		Low:   openPrice,
		Close: openPrice,
	})
}

// Active returns a copy of the active candle.
func (s *ChartSeries) Active() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Candles returns a copy of the whole series, oldest first.
func (s *ChartSeries) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Len returns the number of candles held.
func (s *ChartSeries) Len() int { return len(s.candles) }

// Bound returns the maximum number of candles the series keeps.
func (s *ChartSeries) Bound() int { return s.bound }
