package forecast

import (
	"fmt"
	"time"

	"budget/internal/core"
)

// ExpandInstallments turns an installment plan into one draft per
// installment. Draft k is anchored k-1 months after the plan (time.AddDate
// rollover applies to short months) and its notes carry "Installment k/N".
// Expanded drafts are one-time transactions so each installment is counted in
// its own month only.
//
// Anything that is not a custom plan with at least 2 installments is returned
// unchanged as a single draft.
func ExpandInstallments(d core.Draft) []core.Draft {
	n := d.Installments()
	if d.Frequency != core.Custom || n < 2 {
		return []core.Draft{d}
	}

	out := make([]core.Draft, 0, n)
	for k := 1; k <= n; k++ {
		item := d
		item.Frequency = core.Once
		item.InstallmentCount = nil
		item.Date = d.Date.AddMonths(k - 1)
		item.Notes = installmentNote(d.Notes, k, n)
		out = append(out, item)
	}
	return out
}

func installmentNote(notes string, k, n int) string {
	tag := fmt.Sprintf("Installment %d/%d", k, n)
	if notes == "" {
		return tag
	}
	return notes + " - " + tag
}

// CurrentInstallmentLabel renders "k/N" for a custom plan as of asOf, or ""
// for anything else.
func CurrentInstallmentLabel(t core.Transaction, asOf time.Time) string {
	current, total, ok := t.InstallmentPosition(asOf)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d/%d", current, total)
}
