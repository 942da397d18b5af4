package portfolio

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/models"
)

// closeEpsilon decides when a sell has emptied a position. Fractional crypto
// quantities accumulate float error, so "reaches zero" is an epsilon check,
// not exact equality; without it sells strand dust positions.
const closeEpsilon = 1e-9

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrInvalidOrder         = errors.New("quantity and price must be positive")
)

// Position is a held quantity of one symbol at a weighted average cost.
type Position struct {
	Symbol   string           `json:"symbol"`
	Quantity float64          `json:"quantity"`
	AvgPrice float64          `json:"avgPrice"`
	Type     market.AssetType `json:"type"`
}

// Recorder persists trade history rows. Failures are logged, never surfaced;
// the in-memory ledger stays authoritative.
type Recorder interface {
	Record(trade models.Trade) error
}

// Ledger is the paper-money bookkeeping for one session: a cash balance plus
// weighted-average-cost positions. It reads market prices but never writes
// the asset book.
type Ledger struct {
	mu        sync.Mutex
	logger    *zap.Logger
	recorder  Recorder
	cash      float64
	positions map[string]*Position
}

// NewLedger creates a Ledger seeded with startingCash. recorder may be nil.
func NewLedger(logger *zap.Logger, recorder Recorder, startingCash float64) *Ledger {
	return &Ledger{
		logger:    logger.Named("portfolio"),
		recorder:  recorder,
		cash:      startingCash,
		positions: make(map[string]*Position),
	}
}

// Buy debits qty×price from cash and merges into the position at weighted
// average cost. Rejected with ErrInsufficientFunds if the cash balance cannot
// cover it; ledger state is untouched on any error.
func (l *Ledger) Buy(symbol string, qty, price float64, typ market.AssetType) (Position, error) {
	if qty <= 0 || price <= 0 {
		return Position{}, ErrInvalidOrder
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := qty * price
	if cost > l.cash {
		return Position{}, ErrInsufficientFunds
	}
	l.cash -= cost

	pos, ok := l.positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol, Type: typ}
		l.positions[symbol] = pos
	}
	pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*qty) / (pos.Quantity + qty)
	pos.Quantity += qty

	l.record("BUY", symbol, typ, qty, price)
	return *pos, nil
}

// Sell credits qty×price to cash and reduces the position, removing it
// entirely once the remaining quantity is within epsilon of zero. A sell
// exceeding current holdings is rejected with ErrInsufficientHoldings, never
// clamped; ledger state is untouched on any error. closed reports whether the
// position was removed, in which case the returned Position is the zero value.
func (l *Ledger) Sell(symbol string, qty, price float64) (remaining Position, closed bool, err error) {
	if qty <= 0 || price <= 0 {
		return Position{}, false, ErrInvalidOrder
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok || qty > pos.Quantity+closeEpsilon {
		return Position{}, false, ErrInsufficientHoldings
	}

	l.cash += qty * price
	pos.Quantity -= qty
	l.record("SELL", symbol, pos.Type, qty, price)

	if pos.Quantity <= closeEpsilon {
		delete(l.positions, symbol)
		return Position{}, true, nil
	}
	return *pos, false, nil
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Snapshot is a deep-copy read-only view of the ledger.
type Snapshot struct {
	Cash      float64    `json:"cash"`
	Positions []Position `json:"positions"`
}

// Snapshot returns a copy of the cash balance and every position.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{Cash: l.cash, Positions: make([]Position, 0, len(l.positions))}
	for _, p := range l.positions {
		snap.Positions = append(snap.Positions, *p)
	}
	return snap
}

// Value prices the holdings against the book and returns total equity
// (cash + market value). Positions whose symbol has no quote are valued at
// their average cost.
func (l *Ledger) Value(book *market.AssetBook) float64 {
	snap := l.Snapshot()
	total := snap.Cash
	for _, p := range snap.Positions {
		price := p.AvgPrice
		if q, ok := book.Get(p.Symbol); ok {
			price = q.Price
		}
		total += p.Quantity * price
	}
	return total
}

// Reset clears all positions and restores the cash balance, e.g. on logout.
func (l *Ledger) Reset(cash float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = cash
	l.positions = make(map[string]*Position)
}

// record writes a trade history row best-effort. Must be called with the lock held.
func (l *Ledger) record(side, symbol string, typ market.AssetType, qty, price float64) {
	if l.recorder == nil {
		return
	}
	trade := models.Trade{
		Symbol:    symbol,
		Side:      side,
		AssetType: string(typ),
		Price:     price,
		Quantity:  qty,
		Total:     qty * price,
		Timestamp: time.Now().Unix(),
	}
	if err := l.recorder.Record(trade); err != nil {
		l.logger.Warn("failed to save trade record",
			zap.String("symbol", symbol), zap.String("side", side), zap.Error(err))
	}
}
