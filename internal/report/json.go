package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/LvisWang/binance-accounting/internal/domain"
)

// WriteTradesJSON dumps the trades as an indented JSON array, sorted by
// execution time.
func WriteTradesJSON(w io.Writer, trades []domain.Trade) error {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return fmt.Errorf("encoding trades to JSON: %w", err)
	}
	return nil
}
