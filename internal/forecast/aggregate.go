package forecast

import (
	"errors"
	"sort"
	"time"

	"budget/internal/core"
)

// Period selects a preset date range.
type Period string

const (
	PeriodAll     Period = "all"
	PeriodCurrent Period = "current"
	PeriodLast    Period = "last"
)

var ErrInvalidPeriod = errors.New("invalid period")

// ParsePeriod maps a query value to a Period. The empty string means all.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodCurrent, PeriodLast:
		return Period(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// SumIncome sums the amounts of income transactions.
func SumIncome(txs []core.Transaction) core.Money {
	return sumType(txs, core.Income)
}

// SumExpense sums the amounts of expense transactions.
func SumExpense(txs []core.Transaction) core.Money {
	return sumType(txs, core.Expense)
}

// Balance returns SumIncome - SumExpense.
func Balance(txs []core.Transaction) core.Money {
	return SumIncome(txs).Sub(SumExpense(txs))
}

func sumType(txs []core.Transaction, typ core.TransactionType) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// FilterByRange keeps transactions dated from the start of start's day to the
// end of end's day, both inclusive. When either bound is zero the input is
// returned unfiltered (as a copy).
func FilterByRange(txs []core.Transaction, start, end time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	if start.IsZero() || end.IsZero() {
		return append(out, txs...)
	}
	from := core.DateOf(start)
	to := core.DateOf(end)
	for _, t := range txs {
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MonthRange returns the first and last day of now's month.
func MonthRange(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// PeriodRange returns the bounds of p relative to now. PeriodAll yields zero
// bounds, which FilterByRange treats as unfiltered.
func PeriodRange(p Period, now time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodCurrent:
		return MonthRange(now)
	case PeriodLast:
		first, _ := MonthRange(now)
		return MonthRange(first.AddDate(0, -1, 0))
	default:
		return time.Time{}, time.Time{}
	}
}

// FilterByPeriod applies a preset range.
func FilterByPeriod(txs []core.Transaction, p Period, now time.Time) []core.Transaction {
	start, end := PeriodRange(p, now)
	return FilterByRange(txs, start, end)
}

// SortNewestFirst returns a copy of txs ordered by date descending. Ties keep
// their input order.
func SortNewestFirst(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// Summarize returns face-value totals of txs plus income and expense broken
// down by category. Categories are listed in their canonical order and only
// when they have a non-zero amount.
func Summarize(txs []core.Transaction) core.Summary {
	byCategory := map[core.TransactionType]map[core.Category]core.Money{
		core.Income:  {},
		core.Expense: {},
	}
	for _, t := range txs {
		if m, ok := byCategory[t.Type]; ok {
			m[t.Category] = m[t.Category].Add(t.Amount)
		}
	}

	income := SumIncome(txs)
	expense := SumExpense(txs)
	return core.Summary{
		Income:            income,
		Expense:           expense,
		Balance:           income.Sub(expense),
		Count:             len(txs),
		IncomeByCategory:  categoryAmounts(byCategory[core.Income]),
		ExpenseByCategory: categoryAmounts(byCategory[core.Expense]),
	}
}

func categoryAmounts(totals map[core.Category]core.Money) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(totals))
	for _, c := range core.AllCategories() {
		if amount, ok := totals[c]; ok && !amount.IsZero() {
			out = append(out, core.CategoryAmount{Category: c, Amount: amount})
		}
	}
	return out
}
