package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/alert"
	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/feed"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/notify"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

// ErrUnknownSymbol is returned when an operation references a symbol the
// asset book has never seen.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Engine is one user session's market state machine. It owns the asset book,
// the selected symbol's chart series, the alert engine, the notification
// queue, and the portfolio ledger, and drives them from two inputs: feed
// refreshes and simulated ticks. Construct one per session and pass it
// explicitly; there is no ambient shared instance.
type Engine struct {
	logger *zap.Logger
	cfg    config.Market
	feed   feed.ClientInterface // nil in offline mode

	book   *market.AssetBook
	sim    *market.Simulator
	alerts *alert.Engine
	notes  *notify.Queue
	ledger *portfolio.Ledger

	// refreshing suppresses overlapping refresh cycles: a cycle that finds
	// one already in flight is skipped, not queued.
	refreshing atomic.Bool

	mu         sync.Mutex
	selected   string
	timeRange  string
	series     *market.ChartSeries
	generation uint64
}

// NewEngine wires a session engine from its collaborators. feedClient may be
// nil, which forces offline mode regardless of cfg.OfflineMode.
func NewEngine(
	logger *zap.Logger,
	cfg config.Market,
	feedClient feed.ClientInterface,
	book *market.AssetBook,
	sim *market.Simulator,
	alerts *alert.Engine,
	notes *notify.Queue,
	ledger *portfolio.Ledger,
) *Engine {
	return &Engine{
		logger:    logger.Named("engine"),
		cfg:       cfg,
		feed:      feedClient,
		book:      book,
		sim:       sim,
		alerts:    alerts,
		notes:     notes,
		ledger:    ledger,
		timeRange: "1D",
	}
}

func (e *Engine) offline() bool {
	return e.feed == nil || e.cfg.OfflineMode
}

// Bootstrap performs the initial load: the first feed refresh, falling back
// to the built-in universe if the feed fails or returns nothing, then selects
// the first symbol so the session always has a chart.
func (e *Engine) Bootstrap(ctx context.Context) {
	if !e.offline() {
		e.Refresh(ctx)
	}
	if e.book.Len() == 0 {
		e.logger.Info("seeding built-in asset universe")
		e.book.ReplaceAll(market.DefaultUniverse())
	}

	if _, ok := e.Selected(); !ok {
		quotes := e.book.Snapshot()
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
		if len(quotes) > 0 {
			if err := e.Select(ctx, quotes[0].Symbol, "1D"); err != nil {
				e.logger.Warn("failed to select initial symbol", zap.Error(err))
			}
		}
	}
}

// Run starts the simulated tick loop and blocks until ctx is cancelled.
// Feed refreshes are driven externally (see cmd/server), so offline sessions
// simply never refresh.
func (e *Engine) Run(ctx context.Context) {
	e.Bootstrap(ctx)

	interval := time.Duration(e.cfg.TickInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting tick loop", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping engine...")
			return
		case <-ticker.C:
			e.SimTick()
		}
	}
}

// Refresh performs one feed refresh cycle: fetch quotes, update the book, and
// re-evaluate alerts on the new snapshot. At most one cycle runs at a time;
// concurrent calls are skipped so overlapping evaluations cannot double-fire
// alerts. Feed errors degrade to the last-known book state, never to a failure.
func (e *Engine) Refresh(ctx context.Context) {
	if e.offline() {
		return
	}
	if !e.refreshing.CompareAndSwap(false, true) {
		e.logger.Debug("refresh already in flight, skipping")
		return
	}
	defer e.refreshing.Store(false)

	quotes, err := e.feed.GetMarketData(ctx, "")
	if err != nil {
		e.logger.Warn("feed refresh failed, keeping last-known data", zap.Error(err))
		return
	}
	if len(quotes) == 0 {
		e.logger.Warn("feed refresh returned no quotes, keeping last-known data")
		return
	}

	// The selected symbol survives a bulk replace by identity: selection is
	// a symbol, never an index into the feed payload.
	e.book.ReplaceAll(quotes)
	e.syncSelectedSeries()
	e.alerts.Evaluate(e.book)

	e.logger.Debug("feed refresh applied", zap.Int("quotes", len(quotes)))
}

// syncSelectedSeries moves the selected chart's active candle to the book
// price after a refresh. SimTick never touches live-feed stocks, so without
// this the chart of a selected stock would freeze while its quote moves.
func (e *Engine) syncSelectedSeries() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.series == nil {
		return
	}
	quote, ok := e.book.Get(e.selected)
	if !ok {
		return
	}
	if active, ok := e.series.Active(); ok {
		e.series.ExtendActive(quote.Price-active.Close, 0)
	}
}

// SimTick advances simulated assets by one tick and re-evaluates alerts on
// the same logical update. Only crypto and forex are perturbed; stock quotes
// belong to the live feed unless the whole session is offline.
func (e *Engine) SimTick() {
	// Tick the selected chart under the lock; the series is shared with
	// readers and with Select's reseeding.
	e.mu.Lock()
	selected := e.selected
	ticked := false
	if e.series != nil {
		if q, ok := e.book.Get(selected); ok && e.simulated(q) {
			if newClose, _ := e.sim.Tick(e.series); newClose > 0 {
				e.book.ApplyPriceDelta(selected, newClose)
				e.book.AddVolume(selected, 1000)
			}
			ticked = true
		}
	}
	e.mu.Unlock()

	for _, q := range e.book.Snapshot() {
		if !e.simulated(q) || (ticked && q.Symbol == selected) {
			continue
		}
		e.book.ApplyPriceDelta(q.Symbol, e.sim.PerturbPrice(q.Price))
	}

	e.alerts.Evaluate(e.book)
}

// simulated reports whether the simulator may perturb this quote. Live-feed
// stocks are off limits; that gate is an invariant, not a preference.
func (e *Engine) simulated(q market.Quote) bool {
	return q.Type != market.AssetStock || e.offline()
}

// Select switches the session to symbol over timeRange, discarding the old
// chart and building a new one: from the feed when available, otherwise
// reseeded from the current price. A late feed response for a previous
// selection is detected by generation token and dropped.
func (e *Engine) Select(ctx context.Context, symbol, timeRange string) error {
	quote, ok := e.book.Get(symbol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if timeRange == "" {
		timeRange = "1D"
	}
	bound := market.BoundForRange(timeRange)

	e.mu.Lock()
	e.selected = symbol
	e.timeRange = timeRange
	e.series = nil
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	series := e.buildSeries(ctx, quote, timeRange, bound)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen {
		// User switched again while we were fetching; this response is stale.
		e.logger.Debug("discarding stale chart response",
			zap.String("symbol", symbol), zap.Uint64("generation", gen))
		return nil
	}
	e.series = series
	return nil
}

// buildSeries fetches candles for the selection or synthesizes them.
func (e *Engine) buildSeries(ctx context.Context, quote market.Quote, timeRange string, bound int) *market.ChartSeries {
	if !e.offline() {
		candles, err := e.feed.GetCandles(ctx, quote.Symbol, timeRange)
		if err == nil && len(candles) > 0 {
			// Real data gets real indicators; jitter is for the simulator only.
			market.ApplyIndicators(candles)
			series := market.NewChartSeries(quote.Symbol, bound)
			for _, c := range candles {
				series.Append(c)
			}
			return series
		}
		if err != nil {
			e.logger.Warn("candle fetch failed, seeding simulated series",
				zap.String("symbol", quote.Symbol), zap.Error(err))
		}
	}
	return e.sim.Seed(quote.Symbol, quote.Price, bound, bound)
}

// SetTimeRange reseeds the selected chart for a new range. Charts are not
// historically accurate across a range switch; there is no candle store to
// refetch from, so the series restarts from the current price.
func (e *Engine) SetTimeRange(ctx context.Context, timeRange string) error {
	e.mu.Lock()
	selected := e.selected
	e.mu.Unlock()
	if selected == "" {
		return errors.New("no symbol selected")
	}
	return e.Select(ctx, selected, timeRange)
}

// Selected returns the quote currently driving the chart.
func (e *Engine) Selected() (market.Quote, bool) {
	e.mu.Lock()
	symbol := e.selected
	e.mu.Unlock()
	if symbol == "" {
		return market.Quote{}, false
	}
	return e.book.Get(symbol)
}

// ChartData returns a copy of the selected symbol's candle series.
func (e *Engine) ChartData() []market.Candle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.series == nil {
		return nil
	}
	return e.series.Candles()
}

// Buy executes a paper buy at the current book price. Trade errors surface as
// a user notification and a returned error; ledger state is unchanged on error.
func (e *Engine) Buy(symbol string, qty float64) (portfolio.Position, error) {
	quote, ok := e.book.Get(symbol)
	if !ok {
		return portfolio.Position{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	pos, err := e.ledger.Buy(symbol, qty, quote.Price, quote.Type)
	if err != nil {
		e.notes.Push(fmt.Sprintf("⚠️ Trade rejected: %v", err))
		return portfolio.Position{}, err
	}

	e.notes.Push(fmt.Sprintf("✅ Bought %g %s @ $%s", qty, symbol, money(quote.Price)))
	return pos, nil
}

// Sell executes a paper sell at the current book price.
func (e *Engine) Sell(symbol string, qty float64) (portfolio.Position, bool, error) {
	quote, ok := e.book.Get(symbol)
	if !ok {
		return portfolio.Position{}, false, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	pos, closed, err := e.ledger.Sell(symbol, qty, quote.Price)
	if err != nil {
		e.notes.Push(fmt.Sprintf("⚠️ Trade rejected: %v", err))
		return portfolio.Position{}, false, err
	}

	e.notes.Push(fmt.Sprintf("✅ Sold %g %s @ $%s", qty, symbol, money(quote.Price)))
	return pos, closed, nil
}

// HandleLogout clears user-scoped state: portfolio, alerts, and any pending
// notifications. Market data is session-neutral and survives.
func (e *Engine) HandleLogout() {
	e.ledger.Reset(e.cfg.StartingCash)
	e.alerts.Reset()
	e.notes.Clear()
	e.logger.Info("user state cleared on logout")
}

// Close cancels outstanding notification timers. Call on teardown so no
// expiry callback fires against a dismantled session.
func (e *Engine) Close() {
	e.notes.Clear()
}

// Book exposes the asset book for read-side consumers (API, export).
func (e *Engine) Book() *market.AssetBook { return e.book }

// Ledger exposes the portfolio ledger for read-side consumers.
func (e *Engine) Ledger() *portfolio.Ledger { return e.ledger }

// Alerts exposes the alert engine for the API layer.
func (e *Engine) Alerts() *alert.Engine { return e.alerts }

// Notifications exposes the notification queue for the API layer.
func (e *Engine) Notifications() *notify.Queue { return e.notes }

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
