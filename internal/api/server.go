package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Daniyal2108/Stock-App/internal/advisor"
	"github.com/Daniyal2108/Stock-App/internal/alert"
	"github.com/Daniyal2108/Stock-App/internal/engine"
	"github.com/Daniyal2108/Stock-App/internal/export"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/models"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

// Server provides the HTTP interface for a dashboard session.
type Server struct {
	server  *http.Server
	engine  *engine.Engine
	advisor *advisor.Client
	db      *gorm.DB // nil disables the trade-history endpoint's backing store
	logger  *zap.Logger
}

// NewServer creates a Server listening on port. advisorClient and db may be nil.
func NewServer(port int, eng *engine.Engine, advisorClient *advisor.Client, db *gorm.DB, logger *zap.Logger) *Server {
	s := &Server{
		engine:  eng,
		advisor: advisorClient,
		db:      db,
		logger:  logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/market/data", s.marketDataHandler)
	mux.HandleFunc("GET /api/market/candles/{symbol}", s.candlesHandler)
	mux.HandleFunc("GET /api/alerts", s.listAlertsHandler)
	mux.HandleFunc("POST /api/alerts", s.createAlertHandler)
	mux.HandleFunc("DELETE /api/alerts/{id}", s.deleteAlertHandler)
	mux.HandleFunc("GET /api/portfolio", s.portfolioHandler)
	mux.HandleFunc("POST /api/trade", s.tradeHandler)
	mux.HandleFunc("GET /api/trades", s.tradesHandler)
	mux.HandleFunc("GET /api/notifications", s.notificationsHandler)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.dismissNotificationHandler)
	mux.HandleFunc("GET /api/report.csv", s.reportHandler)
	mux.HandleFunc("POST /api/advisory", s.advisoryHandler)
	mux.HandleFunc("POST /api/logout", s.logoutHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type marketDataResponse struct {
	MarketData []market.Quote `json:"marketData"`
	Selected   string         `json:"selected,omitempty"`
	TimeRange  string         `json:"timeRange,omitempty"`
}

func (s *Server) marketDataHandler(w http.ResponseWriter, r *http.Request) {
	typ := market.AssetType(r.URL.Query().Get("type"))
	query := r.URL.Query().Get("q")

	resp := marketDataResponse{MarketData: s.engine.Book().Filter(typ, query)}
	if q, ok := s.engine.Selected(); ok {
		resp.Selected = q.Symbol
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type candlesResponse struct {
	Symbol    string          `json:"symbol"`
	TimeRange string          `json:"timeRange"`
	Candles   []market.Candle `json:"candles"`
}

// candlesHandler selects the symbol and returns its chart. Selection is a
// side effect on purpose: the chart endpoint is how the UI switches focus.
func (s *Server) candlesHandler(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	timeRange := r.URL.Query().Get("range")
	if timeRange == "" {
		timeRange = "1D"
	}

	if err := s.engine.Select(r.Context(), symbol, timeRange); err != nil {
		if errors.Is(err, engine.ErrUnknownSymbol) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, candlesResponse{
		Symbol:    symbol,
		TimeRange: timeRange,
		Candles:   s.engine.ChartData(),
	})
}

func (s *Server) listAlertsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Alerts().Rules())
}

type createAlertRequest struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"targetPrice"`
	Condition   string  `json:"condition"`
}

func (s *Server) createAlertHandler(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	rule, err := s.engine.Alerts().Add(req.Symbol, req.TargetPrice, alert.Condition(req.Condition))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	// A freshly created alert may already be met by the current price.
	s.engine.Alerts().Evaluate(s.engine.Book())

	s.writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) deleteAlertHandler(w http.ResponseWriter, r *http.Request) {
	s.engine.Alerts().Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type portfolioResponse struct {
	Cash      float64              `json:"cash"`
	Positions []portfolio.Position `json:"positions"`
	Value     float64              `json:"value"`
}

func (s *Server) portfolioHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Ledger().Snapshot()
	s.writeJSON(w, http.StatusOK, portfolioResponse{
		Cash:      snap.Cash,
		Positions: snap.Positions,
		Value:     s.engine.Ledger().Value(s.engine.Book()),
	})
}

type tradeRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
}

type tradeResponse struct {
	Position portfolio.Position `json:"position"`
	Closed   bool               `json:"closed,omitempty"`
	Cash     float64            `json:"cash"`
}

// tradeHandler executes a paper trade. Rejections (insufficient funds or
// holdings, bad quantity) are the user's problem, not the server's: they come
// back as 4xx with a JSON reason, never as a 5xx.
func (s *Server) tradeHandler(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var (
		pos    portfolio.Position
		closed bool
		err    error
	)
	switch req.Side {
	case "BUY":
		pos, err = s.engine.Buy(req.Symbol, req.Quantity)
	case "SELL":
		pos, closed, err = s.engine.Sell(req.Symbol, req.Quantity)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("side must be BUY or SELL, got %q", req.Side))
		return
	}
	if err != nil {
		if errors.Is(err, engine.ErrUnknownSymbol) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tradeResponse{
		Position: pos,
		Closed:   closed,
		Cash:     s.engine.Ledger().Cash(),
	})
}

// tradesHandler returns the persisted trade history, most recent first.
func (s *Server) tradesHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, []models.Trade{})
		return
	}

	var trades []models.Trade
	if err := s.db.Order("timestamp desc").Find(&trades).Error; err != nil {
		s.logger.Error("Failed to get trades from database", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to get trades"))
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Notifications().Snapshot())
}

func (s *Server) dismissNotificationHandler(w http.ResponseWriter, r *http.Request) {
	s.engine.Notifications().RemoveByID(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	headers, rows := export.Report(s.engine.Book().Snapshot(), s.engine.Ledger().Snapshot())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="market-report.csv"`)
	fmt.Fprint(w, export.ToCSV(headers, rows))
}

type advisoryRequest struct {
	Symbol  string           `json:"symbol"`
	Prompt  string           `json:"prompt"`
	Profile *advisor.Profile `json:"profile,omitempty"`
}

type advisoryResponse struct {
	Text string `json:"text"`
}

// advisoryHandler answers with AI analysis, or the offline fallback when no
// advisory endpoint is configured. It never fails past input validation.
func (s *Server) advisoryHandler(w http.ResponseWriter, r *http.Request) {
	var req advisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	quote, ok := s.engine.Book().Get(req.Symbol)
	if !ok {
		if quote, ok = s.engine.Selected(); !ok {
			s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown symbol: %s", req.Symbol))
			return
		}
	}

	analysisReq := advisor.Request{
		Quote:     quote,
		Profile:   req.Profile,
		Positions: s.engine.Ledger().Snapshot().Positions,
		Prompt:    req.Prompt,
	}

	var text string
	if s.advisor != nil {
		text = s.advisor.Analyze(r.Context(), analysisReq)
	} else {
		text = advisor.Fallback(analysisReq)
	}
	s.writeJSON(w, http.StatusOK, advisoryResponse{Text: text})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.engine.HandleLogout()
	w.WriteHeader(http.StatusNoContent)
}
