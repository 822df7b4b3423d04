package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func TestExpandInstallments(t *testing.T) {
	d := core.Draft{
		Type:             core.Expense,
		Description:      "Laptop",
		Amount:           core.Money{Cents: 25000},
		Category:         core.Other,
		Date:             core.NewDate(2024, 1, 15),
		Frequency:        core.Custom,
		InstallmentCount: core.IntPtr(5),
		Notes:            "store card",
	}

	got := ExpandInstallments(d)
	require.Len(t, got, 5)
	for i, item := range got {
		k := i + 1
		assert.Equal(t, core.Once, item.Frequency)
		assert.Nil(t, item.InstallmentCount)
		assert.Equal(t, d.Description, item.Description)
		assert.Equal(t, d.Amount, item.Amount)
		assert.Equal(t, d.Category, item.Category)
		assert.Equal(t, d.Type, item.Type)
		assert.Equal(t, core.NewDate(2024, k, 15), item.Date)
		assert.Equal(t, fmt.Sprintf("store card - Installment %d/5", k), item.Notes)
	}

	// The expanded drafts together contribute once per month.
	var txs []core.Transaction
	for i, item := range got {
		txs = append(txs, core.Transaction{ID: fmt.Sprintf("laptop-%d", i), Draft: item})
	}
	f, err := Project(txs, 6, 2024, 1)
	require.NoError(t, err)
	for i, m := range f.Months {
		if i < 5 {
			assert.Equal(t, int64(25000), m.Expense.Cents, m.Label)
		} else {
			assert.True(t, m.Expense.IsZero(), m.Label)
		}
	}
}

func TestExpandInstallmentsEmptyNotes(t *testing.T) {
	d := core.Draft{Frequency: core.Custom, InstallmentCount: core.IntPtr(2), Date: core.NewDate(2024, 1, 31)}
	got := ExpandInstallments(d)
	require.Len(t, got, 2)
	assert.Equal(t, "Installment 1/2", got[0].Notes)
	assert.Equal(t, "Installment 2/2", got[1].Notes)
	// Jan 31 + 1 month rolls over to Mar 2 in a leap year.
	assert.Equal(t, core.NewDate(2024, 3, 2), got[1].Date)
}

func TestExpandInstallmentsPassThrough(t *testing.T) {
	tests := []struct {
		name  string
		draft core.Draft
	}{
		{"monthly", core.Draft{Frequency: core.Monthly, Description: "rent"}},
		{"custom without count", core.Draft{Frequency: core.Custom, Description: "odd"}},
		{"custom with one installment", core.Draft{Frequency: core.Custom, InstallmentCount: core.IntPtr(1), Description: "one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandInstallments(tt.draft)
			require.Len(t, got, 1)
			assert.Equal(t, tt.draft, got[0])
		})
	}
}

func TestCurrentInstallmentLabel(t *testing.T) {
	p := plan("tv", 10000, 12, core.NewDate(2024, 1, 10))

	assert.Equal(t, "1/12", CurrentInstallmentLabel(p, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "3/12", CurrentInstallmentLabel(p, time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12/12", CurrentInstallmentLabel(p, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1/12", CurrentInstallmentLabel(p, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)))

	monthly := tx("rent", core.Expense, 1, core.Monthly, core.NewDate(2024, 1, 1))
	assert.Equal(t, "", CurrentInstallmentLabel(monthly, time.Now()))
}
