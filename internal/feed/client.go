package feed

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/market"
)

// ClientInterface defines the interface for the market-data feed client.
type ClientInterface interface {
	GetMarketData(ctx context.Context, assetType market.AssetType) ([]market.Quote, error)
	GetCandles(ctx context.Context, symbol, timeRange string) ([]market.Candle, error)
}

// Client is a REST client for the upstream market-data feed. Responses are
// best-effort: callers fall back to simulator-seeded data on any error.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new feed client.
func NewClient(cfg *config.Feed, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		logger:  logger.Named("feed"),
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// A retryable HTTP status leaves err nil; report the last status instead.
	if err == nil && resp != nil {
		return nil, fmt.Errorf("request failed after %d attempts with status %s", maxRetries, resp.Status())
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// marketDataResponse is the envelope of /market/data.
type marketDataResponse struct {
	Status string `json:"status"`
	Data   struct {
		MarketData []market.Quote `json:"marketData"`
	} `json:"data"`
}

// GetMarketData fetches the latest quotes, optionally filtered by asset type.
func (c *Client) GetMarketData(ctx context.Context, assetType market.AssetType) ([]market.Quote, error) {
	req := c.client.R().
		SetResult(&marketDataResponse{}).
		SetHeader("Content-Type", "application/json")
	if assetType != "" {
		req.SetQueryParam("type", string(assetType))
	}

	resp, err := c.doRequest(ctx, "GET", "/market/data", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}

	result := resp.Result().(*marketDataResponse)
	return result.Data.MarketData, nil
}

// candleResponse is the envelope of /market/candles/{symbol}.
type candleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles []market.Candle `json:"candles"`
	} `json:"data"`
}

// GetCandles fetches the candle series for one symbol over the given range.
func (c *Client) GetCandles(ctx context.Context, symbol, timeRange string) ([]market.Candle, error) {
	req := c.client.R().
		SetResult(&candleResponse{}).
		SetQueryParam("timeRange", timeRange).
		SetHeader("Content-Type", "application/json")

	resp, err := c.doRequest(ctx, "GET", "/market/candles/"+symbol, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", symbol, err)
	}

	result := resp.Result().(*candleResponse)
	return result.Data.Candles, nil
}
