package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Daniyal2108/Stock-App/internal/market"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		logger:  zap.NewNop(), // Use a no-op logger for tests
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	return c, server
}

func TestGetMarketData(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockResponse := `{
			"status": "success",
			"data": {"marketData": [
				{"symbol": "AAPL", "name": "Apple Inc.", "price": 237.5, "change": 1.25, "type": "stock"},
				{"symbol": "BTC/USD", "name": "Bitcoin", "price": 98450, "change": 2500, "type": "crypto"}
			]}
		}`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/market/data", r.URL.Path)
			assert.Equal(t, "crypto", r.URL.Query().Get("type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(mockResponse))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quotes, err := c.GetMarketData(context.Background(), market.AssetCrypto)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, quotes, 2)
		assert.Equal(t, "AAPL", quotes[0].Symbol)
		assert.Equal(t, 237.5, quotes[0].Price)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.GetMarketData(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		attempts := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 2 {
				http.Error(w, "flaky", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","data":{"marketData":[]}}`))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		quotes, err := c.GetMarketData(context.Background(), "")
		assert.NoError(t, err)
		assert.Empty(t, quotes)
		assert.Equal(t, 2, attempts)
	})

	t.Run("ExhaustsRetries", func(t *testing.T) {
		attempts := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			http.Error(w, "down", http.StatusInternalServerError)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		_, err := c.GetMarketData(context.Background(), "")
		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
		// The final error carries the last HTTP status, not a nil wrap.
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Contains(t, err.Error(), "500")
	})
}

func TestGetCandles(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockResponse := `{
			"status": "success",
			"data": {"candles": [
				{"time": "09:30", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 50000},
				{"time": "10:30", "open": 101, "high": 103, "low": 100, "close": 102, "volume": 61000}
			]}
		}`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/market/candles/AAPL", r.URL.Path)
			assert.Equal(t, "1D", r.URL.Query().Get("timeRange"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(mockResponse))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		candles, err := c.GetCandles(context.Background(), "AAPL", "1D")

		assert.NoError(t, err)
		assert.Len(t, candles, 2)
		assert.Equal(t, 101.0, candles[0].Close)
		assert.Equal(t, "10:30", candles[1].Label)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.GetCandles(ctx, "AAPL", "1D")
		assert.Error(t, err)
	})
}
