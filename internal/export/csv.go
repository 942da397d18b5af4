package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

// Report maps the current asset book and portfolio to a tabular structure for
// an external download routine. Pure function, no I/O: one row per quoted
// symbol, sorted for stable output, with the caller's holdings merged in.
func Report(quotes []market.Quote, snap portfolio.Snapshot) (headers []string, rows [][]string) {
	headers = []string{"Symbol", "Type", "Price", "Change%", "Holdings", "Value"}

	held := make(map[string]portfolio.Position, len(snap.Positions))
	for _, p := range snap.Positions {
		held[p.Symbol] = p
	}

	sorted := make([]market.Quote, len(quotes))
	copy(sorted, quotes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	rows = make([][]string, 0, len(sorted))
	for _, q := range sorted {
		pos := held[q.Symbol]
		rows = append(rows, []string{
			q.Symbol,
			string(q.Type),
			humanize.CommafWithDigits(q.Price, 2),
			fmt.Sprintf("%.2f", q.ChangePercent),
			fmt.Sprintf("%g", pos.Quantity),
			humanize.CommafWithDigits(pos.Quantity*q.Price, 2),
		})
	}
	return headers, rows
}

// ToCSV joins a report into CSV text. Fields containing commas are quoted.
func ToCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(quoteFields(headers), ","))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(quoteFields(row), ","))
	}
	return b.String()
}

func quoteFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, ",\"\n") {
			out[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		} else {
			out[i] = f
		}
	}
	return out
}
