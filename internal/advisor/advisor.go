package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

// Profile is the user context handed to the advisory model.
type Profile struct {
	Name          string  `json:"name"`
	RiskTolerance string  `json:"riskTolerance"`
	Goal          string  `json:"goal"`
	Balance       float64 `json:"balance"`
}

// Request is the stable, serializable snapshot sent to the advisory
// collaborator: the quote under discussion, the user, their holdings, and a
// free-text prompt. It carries copies only, never live engine state.
type Request struct {
	Quote     market.Quote         `json:"quote"`
	Profile   *Profile             `json:"profile,omitempty"`
	Positions []portfolio.Position `json:"positions"`
	Prompt    string               `json:"prompt"`
}

type analysisResponse struct {
	Text string `json:"text"`
}

// Client talks to the advisory endpoint. Any failure, including a missing
// endpoint, degrades to the deterministic local fallback so the UI never
// shows a raw error for this feature.
type Client struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewClient creates an advisory client. An empty base URL yields a client
// that always answers with the fallback.
func NewClient(cfg *config.Advisor, logger *zap.Logger) *Client {
	return &Client{
		client: resty.New().SetBaseURL(cfg.BaseURL),
		apiKey: cfg.APIKey,
		logger: logger.Named("advisor"),
	}
}

// Analyze returns advisory text for the request. It never fails.
func (c *Client) Analyze(ctx context.Context, req Request) string {
	if c.client.BaseURL == "" {
		return Fallback(req)
	}

	var result analysisResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(req).
		SetResult(&result).
		Post("/analyze")
	if err != nil || resp.IsError() || result.Text == "" {
		c.logger.Warn("advisory request failed, using fallback",
			zap.String("symbol", req.Quote.Symbol), zap.Error(err))
		return Fallback(req)
	}
	return result.Text
}

// Fallback produces a deterministic offline advisory from the snapshot alone.
func Fallback(req Request) string {
	q := req.Quote

	trend := "Bearish"
	if q.ChangePercent > 0 {
		trend = "Bullish"
	}

	risk := "General"
	if req.Profile != nil && req.Profile.RiskTolerance != "" {
		risk = req.Profile.RiskTolerance
	}

	action := "HOLD"
	note := "maintain current stops and monitor volume."
	switch {
	case q.ChangePercent < -2:
		action = "BUY THE DIP"
		note = "this volatility presents an accumulation opportunity."
	case q.ChangePercent > 2:
		action = "TAKE PROFIT"
	}

	var b strings.Builder
	b.WriteString("**Offline Analysis (Simulation Mode)**\n\n")
	b.WriteString(fmt.Sprintf("**Asset:** %s\n", q.Symbol))
	b.WriteString(fmt.Sprintf("**Trend:** %s (%.2f%%)\n", trend, q.ChangePercent))
	b.WriteString(fmt.Sprintf("**Rating:** %s\n\n", action))
	b.WriteString("**Strategy:**\n")
	b.WriteString(fmt.Sprintf("The asset is currently showing %s momentum. Given your '%s' risk profile, %s\n",
		strings.ToLower(trend), risk, note))
	if len(req.Positions) > 0 {
		b.WriteString(fmt.Sprintf("\nHoldings considered: %s\n", FormatPositions(req.Positions)))
	}
	b.WriteString("\n*Note: Live AI connection unavailable. Using algorithmic fallback.*")
	return b.String()
}

// FormatPositions renders holdings for the advisory prompt.
func FormatPositions(positions []portfolio.Position) string {
	if len(positions) == 0 {
		return "no active positions"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("%s: %g units @ $%.2f", p.Symbol, p.Quantity, p.AvgPrice)
	}
	return strings.Join(parts, ", ")
}
