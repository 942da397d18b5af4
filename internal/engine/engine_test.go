package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/alert"
	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/notify"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

// MockFeedClient is a mock implementation of the feed.ClientInterface.
type MockFeedClient struct {
	mock.Mock
}

func (m *MockFeedClient) GetMarketData(ctx context.Context, assetType market.AssetType) ([]market.Quote, error) {
	args := m.Called(ctx, assetType)
	return args.Get(0).([]market.Quote), args.Error(1)
}

func (m *MockFeedClient) GetCandles(ctx context.Context, symbol, timeRange string) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, timeRange)
	return args.Get(0).([]market.Candle), args.Error(1)
}

func testConfig() config.Market {
	return config.Market{
		TickInterval:      1,
		RefreshInterval:   30,
		SeriesBound:       50,
		VolatilityFactor:  0.005,
		RollProbability:   0.05,
		NotificationTTLMs: 5000,
		StartingCash:      100000,
	}
}

// newTestEngine builds an engine; feedClient nil means offline mode.
func newTestEngine(t *testing.T, feedClient *MockFeedClient) (*Engine, *notify.Queue) {
	logger := zap.NewNop()
	notes := notify.NewQueue(logger, notify.RealClock(), time.Hour)
	book := market.NewAssetBook()
	sim := market.NewSimulator(1, 0.005, 0.05)
	alerts := alert.NewEngine(logger, nil, notes)
	ledger := portfolio.NewLedger(logger, nil, 100000)

	if feedClient == nil {
		return NewEngine(logger, testConfig(), nil, book, sim, alerts, notes, ledger), notes
	}
	return NewEngine(logger, testConfig(), feedClient, book, sim, alerts, notes, ledger), notes
}

func TestBootstrap_OfflineSeedsUniverse(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.Bootstrap(context.Background())

	assert.Greater(t, e.Book().Len(), 0)
	selected, ok := e.Selected()
	assert.True(t, ok)
	assert.Equal(t, "AAPL", selected.Symbol) // first symbol in sorted order
	assert.NotEmpty(t, e.ChartData())
}

func TestRefresh_FeedErrorKeepsLastKnown(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, _ := newTestEngine(t, feedClient)
	e.Book().ReplaceAll([]market.Quote{{Symbol: "AAPL", Price: 100, Type: market.AssetStock}})

	feedClient.On("GetMarketData", mock.Anything, market.AssetType("")).
		Return([]market.Quote{}, assert.AnError)

	e.Refresh(context.Background())

	q, ok := e.Book().Get("AAPL")
	assert.True(t, ok)
	assert.Equal(t, 100.0, q.Price)
	feedClient.AssertExpectations(t)
}

func TestRefresh_EvaluatesAlertsOnSameUpdate(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, notes := newTestEngine(t, feedClient)

	_, err := e.Alerts().Add("AAPL", 240, alert.Above)
	assert.NoError(t, err)

	feedClient.On("GetMarketData", mock.Anything, market.AssetType("")).
		Return([]market.Quote{{Symbol: "AAPL", Price: 250, Type: market.AssetStock}}, nil)

	e.Refresh(context.Background())

	assert.Equal(t, 1, notes.Len())
	assert.Equal(t, 0, e.Alerts().ActiveCount())
}

func TestRefresh_ExtendsSelectedStockSeries(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, _ := newTestEngine(t, feedClient)
	e.Book().ReplaceAll([]market.Quote{{Symbol: "AAPL", Price: 237.50, Type: market.AssetStock}})

	// No candle history upstream: the selection falls back to a seeded series.
	feedClient.On("GetCandles", mock.Anything, "AAPL", "1D").
		Return([]market.Candle(nil), assert.AnError)
	assert.NoError(t, e.Select(context.Background(), "AAPL", "1D"))

	feedClient.On("GetMarketData", mock.Anything, market.AssetType("")).
		Return([]market.Quote{{Symbol: "AAPL", Price: 250.00, Type: market.AssetStock}}, nil)
	e.Refresh(context.Background())

	// The refresh that moved the quote also moved the chart's active candle.
	q, _ := e.Book().Get("AAPL")
	assert.Equal(t, 250.00, q.Price)
	chart := e.ChartData()
	assert.InDelta(t, 250.00, chart[len(chart)-1].Close, 1e-9)

	// Live-feed stocks still belong to the feed: a simulated tick between
	// refreshes leaves both the quote and the chart where the feed put them.
	e.SimTick()
	q, _ = e.Book().Get("AAPL")
	assert.Equal(t, 250.00, q.Price)
	chart = e.ChartData()
	assert.InDelta(t, 250.00, chart[len(chart)-1].Close, 1e-9)
}

func TestRefresh_OverlapSuppressed(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, _ := newTestEngine(t, feedClient)

	release := make(chan struct{})
	feedClient.On("GetMarketData", mock.Anything, market.AssetType("")).
		Run(func(args mock.Arguments) { <-release }).
		Return([]market.Quote{{Symbol: "AAPL", Price: 1, Type: market.AssetStock}}, nil).
		Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Refresh(context.Background())
	}()

	// Wait for the first cycle to be in flight, then try to overlap it.
	assert.Eventually(t, func() bool { return e.refreshing.Load() }, time.Second, time.Millisecond)
	e.Refresh(context.Background()) // must skip, not queue

	close(release)
	wg.Wait()

	// Only the first call reached the feed.
	feedClient.AssertExpectations(t)
}

func TestSimTick_StockGating(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, _ := newTestEngine(t, feedClient)
	e.Book().ReplaceAll([]market.Quote{
		{Symbol: "AAPL", Price: 237.50, Type: market.AssetStock},
		{Symbol: "BTC/USD", Price: 98450, Type: market.AssetCrypto},
		{Symbol: "EUR/USD", Price: 1.0450, Type: market.AssetForex},
	})

	for i := 0; i < 10; i++ {
		e.SimTick()
	}

	// Stocks backed by a live feed are never perturbed by the simulator.
	aapl, _ := e.Book().Get("AAPL")
	assert.Equal(t, 237.50, aapl.Price)

	// Crypto and forex drift.
	btc, _ := e.Book().Get("BTC/USD")
	assert.NotEqual(t, 98450.0, btc.Price)
	eur, _ := e.Book().Get("EUR/USD")
	assert.NotEqual(t, 1.0450, eur.Price)
}

func TestSimTick_OfflinePerturbsStocks(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Book().ReplaceAll([]market.Quote{{Symbol: "AAPL", Price: 237.50, Type: market.AssetStock}})

	for i := 0; i < 10; i++ {
		e.SimTick()
	}

	aapl, _ := e.Book().Get("AAPL")
	assert.NotEqual(t, 237.50, aapl.Price)
}

func TestSimTick_ExtendsSelectedSeries(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Bootstrap(context.Background())
	assert.NoError(t, e.Select(context.Background(), "BTC/USD", "1D"))

	before := e.ChartData()
	e.SimTick()
	after := e.ChartData()

	// The active candle moved (or a new one rolled); the book tracks it.
	assert.NotEqual(t, before[len(before)-1], after[len(after)-1])
	q, _ := e.Book().Get("BTC/USD")
	assert.InDelta(t, after[len(after)-1].Close, q.Price, 1e-9)
}

func TestSelect_UnknownSymbol(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Bootstrap(context.Background())

	err := e.Select(context.Background(), "NOPE", "1D")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSelect_RangeBounds(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Bootstrap(context.Background())

	assert.NoError(t, e.SetTimeRange(context.Background(), "1M"))
	assert.Len(t, e.ChartData(), 150)

	assert.NoError(t, e.SetTimeRange(context.Background(), "1D"))
	assert.Len(t, e.ChartData(), 50)
}

func TestSelect_StaleResponseDiscarded(t *testing.T) {
	feedClient := new(MockFeedClient)
	e, _ := newTestEngine(t, feedClient)
	e.Book().ReplaceAll([]market.Quote{
		{Symbol: "AAPL", Price: 237.50, Type: market.AssetStock},
		{Symbol: "TSLA", Price: 345.10, Type: market.AssetStock},
	})

	release := make(chan struct{})
	slowCandles := []market.Candle{{Label: "slow", Open: 1, High: 1, Low: 1, Close: 1}}
	fastCandles := []market.Candle{{Label: "fast", Open: 2, High: 2, Low: 2, Close: 2}}

	feedClient.On("GetCandles", mock.Anything, "AAPL", "1D").
		Run(func(args mock.Arguments) { <-release }).
		Return(slowCandles, nil)
	feedClient.On("GetCandles", mock.Anything, "TSLA", "1D").
		Return(fastCandles, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, e.Select(context.Background(), "AAPL", "1D"))
	}()

	// Let the AAPL fetch start, then switch away before it returns.
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, e.Select(context.Background(), "TSLA", "1D"))

	close(release)
	wg.Wait()

	// The late AAPL response must not clobber the TSLA chart.
	chart := e.ChartData()
	assert.Len(t, chart, 1)
	assert.Equal(t, "fast", chart[0].Label)
	selected, _ := e.Selected()
	assert.Equal(t, "TSLA", selected.Symbol)
}

func TestBuySell_Notifications(t *testing.T) {
	e, notes := newTestEngine(t, nil)
	e.Bootstrap(context.Background())

	pos, err := e.Buy("AAPL", 10)
	assert.NoError(t, err)
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Contains(t, notes.Messages()[len(notes.Messages())-1], "Bought 10 AAPL")

	_, _, err = e.Sell("AAPL", 20)
	assert.ErrorIs(t, err, portfolio.ErrInsufficientHoldings)
	assert.Contains(t, notes.Messages()[len(notes.Messages())-1], "Trade rejected")

	_, closed, err := e.Sell("AAPL", 10)
	assert.NoError(t, err)
	assert.True(t, closed)
}

func TestHandleLogout_ClearsUserState(t *testing.T) {
	e, notes := newTestEngine(t, nil)
	e.Bootstrap(context.Background())

	_, err := e.Buy("AAPL", 5)
	assert.NoError(t, err)
	_, err = e.Alerts().Add("AAPL", 1, alert.Above)
	assert.NoError(t, err)

	e.HandleLogout()

	assert.Equal(t, 100000.0, e.Ledger().Cash())
	assert.Empty(t, e.Ledger().Snapshot().Positions)
	assert.Empty(t, e.Alerts().Rules())
	assert.Equal(t, 0, notes.Len())

	// Market state survives a logout.
	assert.Greater(t, e.Book().Len(), 0)
}
