// Package sheets defines the outbound spreadsheet mirror port and the row
// layout shared by its adapters.
package sheets

import (
	"context"
	"strconv"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror replaces the mirrored copy with the full snapshot txs.
	Mirror interface {
		Mirror(ctx context.Context, txs []core.Transaction) error
	}
)

// Header is the first row of every mirrored sheet.
var Header = []string{"id", "date", "type", "category", "description", "amount", "frequency", "installments", "notes"}

// Rows renders txs in Header order. The installments column is empty for
// anything that is not an installment plan.
func Rows(txs []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		installments := ""
		if n := t.Installments(); n > 0 {
			installments = strconv.Itoa(n)
		}
		rows = append(rows, []string{
			t.ID,
			t.Date.String(),
			string(t.Type),
			string(t.Category),
			t.Description,
			t.Amount.String(),
			string(t.Frequency),
			installments,
			t.Notes,
		})
	}
	return rows
}
