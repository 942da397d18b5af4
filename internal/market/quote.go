package market

import (
	"strings"
	"sync"
)

// AssetType classifies a quoted instrument.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetForex  AssetType = "forex"
)

// Quote is the current price snapshot for one symbol.
//
// Change is the absolute delta since the session's reference open, so the
// reference open can always be recovered as Price - Change. ChangePercent is
// derived from the two on every write and never set independently.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	Type          AssetType `json:"type"`
	Sector        string    `json:"sector,omitempty"`
	PERatio       float64   `json:"peRatio,omitempty"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	High52Week    float64   `json:"high52Week,omitempty"`
	Low52Week     float64   `json:"low52Week,omitempty"`
}

// recomputePercent derives ChangePercent from Price and Change.
func (q *Quote) recomputePercent() {
	refOpen := q.Price - q.Change
	if refOpen == 0 {
		q.ChangePercent = 0
		return
	}
	q.ChangePercent = q.Change / refOpen * 100
}

// AssetBook is the symbol-keyed collection of current quotes that every
// consumer reads. Quotes are owned exclusively by the book; all accessors
// return copies, never references into the internal map.
type AssetBook struct {
	mu     sync.RWMutex
	quotes map[string]*Quote
}

// NewAssetBook creates an empty AssetBook.
func NewAssetBook() *AssetBook {
	return &AssetBook{quotes: make(map[string]*Quote)}
}

// ReplaceAll upserts the book from a full feed refresh. Symbols missing from
// the incoming set are kept with their last-known values; a partial feed must
// never erase state mid-session.
func (b *AssetBook) ReplaceAll(quotes []Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range quotes {
		if q.Symbol == "" {
			continue
		}
		q.recomputePercent()
		cp := q
		b.quotes[q.Symbol] = &cp
	}
}

// ApplyPriceDelta moves a symbol to newPrice, keeping Change relative to the
// session's reference open. Unknown symbols are a silent no-op; a partial or
// delayed feed may reference symbols the book has never seen.
func (b *AssetBook) ApplyPriceDelta(symbol string, newPrice float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.quotes[symbol]
	if !ok {
		return
	}
	refOpen := q.Price - q.Change
	q.Price = newPrice
	q.Change = newPrice - refOpen
	q.recomputePercent()
}

// AddVolume bumps a symbol's traded volume. No-op on unknown symbols.
func (b *AssetBook) AddVolume(symbol string, delta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if q, ok := b.quotes[symbol]; ok {
		q.Volume += delta
	}
}

// Get returns a copy of the quote for symbol.
func (b *AssetBook) Get(symbol string) (Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.quotes[symbol]
	if !ok {
		return Quote{}, false
	}
	return *q, true
}

// Snapshot returns a copy of every quote in the book.
func (b *AssetBook) Snapshot() []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Quote, 0, len(b.quotes))
	for _, q := range b.quotes {
		out = append(out, *q)
	}
	return out
}

// Filter returns quotes matching the given type and search query. An empty
// type matches all types; the query matches symbol or name, case-insensitive.
func (b *AssetBook) Filter(typ AssetType, query string) []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]Quote, 0, len(b.quotes))
	for _, quote := range b.quotes {
		if typ != "" && quote.Type != typ {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(quote.Symbol), q) &&
			!strings.Contains(strings.ToLower(quote.Name), q) {
			continue
		}
		out = append(out, *quote)
	}
	return out
}

// Len returns the number of symbols in the book.
func (b *AssetBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}
