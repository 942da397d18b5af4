package alert

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/market"
)

// Condition is the direction a price alert watches.
type Condition string

const (
	Above Condition = "above"
	Below Condition = "below"
)

// Rule is a user-defined price-threshold watch. Once Active flips to false
// (trigger or user action) it never flips back; users create a new rule instead.
type Rule struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	TargetPrice float64   `json:"targetPrice"`
	Condition   Condition `json:"condition"`
	Active      bool      `json:"active"`
}

var (
	ErrInvalidTarget    = errors.New("target price must be positive")
	ErrInvalidCondition = errors.New("condition must be above or below")
)

// Notifier receives trigger messages. Satisfied by *notify.Queue.
type Notifier interface {
	Push(message string) string
}

// Engine owns the alert rules and evaluates them against the asset book on
// every price update. The in-memory rules are authoritative; the optional
// Store mirrors them best-effort.
type Engine struct {
	mu       sync.Mutex
	logger   *zap.Logger
	store    Store
	notifier Notifier
	rules    []*Rule
}

// NewEngine creates an Engine. store may be nil for a memory-only session.
func NewEngine(logger *zap.Logger, store Store, notifier Notifier) *Engine {
	return &Engine{
		logger:   logger.Named("alerts"),
		store:    store,
		notifier: notifier,
	}
}

// Load hydrates rules from the store. Without a store it is a no-op.
func (e *Engine) Load() error {
	if e.store == nil {
		return nil
	}
	rules, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = e.rules[:0]
	for _, r := range rules {
		cp := r
		e.rules = append(e.rules, &cp)
	}
	return nil
}

// Add creates a new active rule. The backend write is fire-and-forget.
func (e *Engine) Add(symbol string, targetPrice float64, condition Condition) (Rule, error) {
	if targetPrice <= 0 || math.IsNaN(targetPrice) || math.IsInf(targetPrice, 0) {
		return Rule{}, ErrInvalidTarget
	}
	if condition != Above && condition != Below {
		return Rule{}, ErrInvalidCondition
	}

	rule := Rule{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		TargetPrice: targetPrice,
		Condition:   condition,
		Active:      true,
	}

	e.mu.Lock()
	cp := rule
	e.rules = append(e.rules, &cp)
	e.mu.Unlock()

	e.persist(func(s Store) error { return s.Save(rule) }, "save", rule.ID)
	return rule, nil
}

// Remove deletes a rule by id regardless of its state.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	for i, r := range e.rules {
		if r.ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.persist(func(s Store) error { return s.Delete(id) }, "delete", id)
}

// Rules returns a copy of all rules in insertion order.
func (e *Engine) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = *r
	}
	return out
}

// ActiveCount returns the number of rules still armed.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, r := range e.rules {
		if r.Active {
			n++
		}
	}
	return n
}

// Evaluate checks every active rule against the book. A met condition
// (inclusive: a price exactly at the threshold counts) emits exactly one
// notification and deactivates the rule terminally, so re-evaluating an
// unchanged book is a no-op. Missing or malformed quotes skip the rule for
// this cycle without error. Returns the number of rules triggered.
func (e *Engine) Evaluate(book *market.AssetBook) int {
	e.mu.Lock()

	triggered := 0
	var deactivated []string
	for _, rule := range e.rules {
		if !rule.Active {
			continue
		}
		quote, ok := book.Get(rule.Symbol)
		if !ok {
			continue // feed may not carry this symbol yet
		}
		if math.IsNaN(quote.Price) || math.IsInf(quote.Price, 0) || quote.Price <= 0 {
			continue
		}

		var message string
		switch {
		case rule.Condition == Above && quote.Price >= rule.TargetPrice:
			message = fmt.Sprintf("🚀 %s crossed ABOVE $%s! Current: $%s",
				rule.Symbol, money(rule.TargetPrice), money(quote.Price))
		case rule.Condition == Below && quote.Price <= rule.TargetPrice:
			message = fmt.Sprintf("🔻 %s dropped BELOW $%s! Current: $%s",
				rule.Symbol, money(rule.TargetPrice), money(quote.Price))
		default:
			continue
		}

		rule.Active = false
		triggered++
		e.notifier.Push(message)
		e.logger.Info("alert triggered",
			zap.String("id", rule.ID),
			zap.String("symbol", rule.Symbol),
			zap.Float64("target", rule.TargetPrice),
			zap.Float64("price", quote.Price),
		)

		deactivated = append(deactivated, rule.ID)
	}
	e.mu.Unlock()

	// Store writes happen outside the lock so a slow backend cannot stall
	// the next evaluation cycle.
	for _, id := range deactivated {
		id := id
		e.persist(func(s Store) error { return s.SetActive(id, false) }, "deactivate", id)
	}
	return triggered
}

// Reset clears all user-scoped rules, e.g. on logout.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.rules = nil
	e.mu.Unlock()

	e.persist(func(s Store) error { return s.Clear() }, "clear", "")
}

// persist runs a store write and logs failure without surfacing it; local
// state stays authoritative and there is no retry.
func (e *Engine) persist(op func(Store) error, name, id string) {
	if e.store == nil {
		return
	}
	if err := op(e.store); err != nil {
		e.logger.Warn("alert store write failed",
			zap.String("op", name), zap.String("id", id), zap.Error(err))
	}
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
