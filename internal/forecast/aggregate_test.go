package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func sample() []core.Transaction {
	groceries := tx("groceries", core.Expense, 4250, core.Once, core.NewDate(2024, 3, 31))
	groceries.Category = core.Groceries
	salary := tx("salary", core.Income, 500000, core.Monthly, core.NewDate(2024, 3, 1))
	salary.Category = core.Salary
	rent := tx("rent", core.Expense, 150000, core.Monthly, core.NewDate(2024, 2, 1))
	rent.Category = core.Rent
	market := tx("market", core.Expense, 1750, core.Once, core.NewDate(2024, 2, 14))
	market.Category = core.Groceries
	return []core.Transaction{groceries, salary, rent, market}
}

func TestAggregationIdentity(t *testing.T) {
	txs := sample()
	assert.Equal(t, SumIncome(txs).Sub(SumExpense(txs)), Balance(txs))

	a, b := txs[:2], txs[2:]
	assert.Equal(t, SumIncome(txs), SumIncome(a).Add(SumIncome(b)))
	assert.Equal(t, SumExpense(txs), SumExpense(a).Add(SumExpense(b)))
	assert.Equal(t, int64(500000-4250-150000-1750), Balance(txs).Cents)

	assert.True(t, Balance(nil).IsZero())
}

func TestFilterByRange(t *testing.T) {
	txs := sample()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{
			name:  "end day is inclusive",
			start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			want:  []string{"groceries", "salary"},
		},
		{
			name:  "start time of day is ignored",
			start: time.Date(2024, 2, 14, 18, 30, 0, 0, time.UTC),
			end:   time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			want:  []string{"market"},
		},
		{
			name:  "zero start passes everything through",
			start: time.Time{},
			end:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want:  []string{"groceries", "salary", "rent", "market"},
		},
		{
			name:  "zero end passes everything through",
			start: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Time{},
			want:  []string{"groceries", "salary", "rent", "market"},
		},
		{
			name:  "empty range",
			start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByRange(txs, tt.start, tt.end)
			ids := []string{}
			for _, g := range got {
				ids = append(ids, g.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterByRangeReturnsCopy(t *testing.T) {
	txs := sample()
	got := FilterByRange(txs, time.Time{}, time.Time{})
	got[0].Description = "changed"
	assert.Equal(t, "groceries", txs[0].Description)
}

func TestFilterByPeriod(t *testing.T) {
	txs := sample()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	current := FilterByPeriod(txs, PeriodCurrent, now)
	assert.Len(t, current, 2)

	last := FilterByPeriod(txs, PeriodLast, now)
	require.Len(t, last, 2)
	assert.Equal(t, "rent", last[0].ID)
	assert.Equal(t, "market", last[1].ID)

	assert.Len(t, FilterByPeriod(txs, PeriodAll, now), 4)
}

func TestPeriodRangeJanuary(t *testing.T) {
	start, end := PeriodRange(PeriodLast, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAll, p)

	p, err = ParsePeriod("last")
	require.NoError(t, err)
	assert.Equal(t, PeriodLast, p)

	_, err = ParsePeriod("week")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSortNewestFirst(t *testing.T) {
	sorted := SortNewestFirst(sample())
	var ids []string
	for _, s := range sorted {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"groceries", "salary", "market", "rent"}, ids)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, int64(500000), s.Income.Cents)
	assert.Equal(t, int64(156000), s.Expense.Cents)
	assert.Equal(t, int64(344000), s.Balance.Cents)
	assert.Equal(t, []core.CategoryAmount{
		{Category: core.Rent, Amount: core.Money{Cents: 150000}},
		{Category: core.Groceries, Amount: core.Money{Cents: 6000}},
	}, s.ExpenseByCategory)
	assert.Equal(t, []core.CategoryAmount{
		{Category: core.Salary, Amount: core.Money{Cents: 500000}},
	}, s.IncomeByCategory)
}
