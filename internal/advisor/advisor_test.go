package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

func TestAnalyze_UsesEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "Strong buy."}`))
	}))
	defer server.Close()

	c := NewClient(&config.Advisor{BaseURL: server.URL, APIKey: "test-key"}, zap.NewNop())
	got := c.Analyze(context.Background(), Request{Quote: market.Quote{Symbol: "AAPL"}})
	assert.Equal(t, "Strong buy.", got)
}

func TestAnalyze_FallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(&config.Advisor{BaseURL: server.URL}, zap.NewNop())
	got := c.Analyze(context.Background(), Request{
		Quote: market.Quote{Symbol: "TSLA", ChangePercent: -3.1},
	})
	assert.Contains(t, got, "Simulation Mode")
	assert.Contains(t, got, "TSLA")
	assert.Contains(t, got, "BUY THE DIP")
}

func TestAnalyze_NoEndpointConfigured(t *testing.T) {
	c := NewClient(&config.Advisor{}, zap.NewNop())
	got := c.Analyze(context.Background(), Request{Quote: market.Quote{Symbol: "AAPL", ChangePercent: 0.5}})
	assert.Contains(t, got, "Simulation Mode")
	assert.Contains(t, got, "HOLD")
}

func TestFallback_Deterministic(t *testing.T) {
	req := Request{
		Quote:   market.Quote{Symbol: "BTC/USD", ChangePercent: 2.6},
		Profile: &Profile{RiskTolerance: "Aggressive"},
		Positions: []portfolio.Position{
			{Symbol: "BTC/USD", Quantity: 0.5, AvgPrice: 90000},
		},
	}

	a := Fallback(req)
	b := Fallback(req)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "Bullish")
	assert.Contains(t, a, "TAKE PROFIT")
	assert.Contains(t, a, "Aggressive")
	assert.Contains(t, a, "0.5 units @ $90000.00")
}

func TestFormatPositions(t *testing.T) {
	assert.Equal(t, "no active positions", FormatPositions(nil))
	got := FormatPositions([]portfolio.Position{
		{Symbol: "AAPL", Quantity: 10, AvgPrice: 237.5},
		{Symbol: "ETH/USD", Quantity: 0.25, AvgPrice: 3350.2},
	})
	assert.Equal(t, "AAPL: 10 units @ $237.50, ETH/USD: 0.25 units @ $3350.20", got)
}
