package forecast

import (
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
)

const (
	// DefaultWindowMonths is the projection length used when none is configured.
	DefaultWindowMonths = 6
	// MaxWindowMonths bounds the projection length.
	MaxWindowMonths = 120
)

var ErrInvalidWindow = errors.New("invalid forecast window")

// MonthlySummary is the projected effect of all transactions on one month.
type MonthlySummary struct {
	Label          string     `json:"month"`
	Year           int        `json:"year"`
	Month          int        `json:"monthNumber"`
	Income         core.Money `json:"income"`
	Expense        core.Money `json:"expense"`
	Balance        core.Money `json:"balance"`
	IsCurrentMonth bool       `json:"isCurrentMonth"`
	// TransactionIDs lists the transactions that occur in this month.
	TransactionIDs []string `json:"transactionIds"`
}

// Forecast is a sequence of consecutive months with running totals.
type Forecast struct {
	Months       []MonthlySummary `json:"months"`
	TotalIncome  core.Money       `json:"totalIncome"`
	TotalExpense core.Money       `json:"totalExpense"`
	TotalBalance core.Money       `json:"totalBalance"`
}

type options struct {
	labels core.Labels
}

// Option customizes Project.
type Option func(*options)

// WithLabels renders month labels with l instead of the English defaults.
func WithLabels(l core.Labels) Option {
	return func(o *options) {
		o.labels = l
	}
}

// Project computes windowMonths consecutive monthly summaries starting at
// startYear/startMonth. The first month is flagged as the current one.
func Project(txs []core.Transaction, windowMonths, startYear, startMonth int, opts ...Option) (Forecast, error) {
	if windowMonths < 1 || windowMonths > MaxWindowMonths {
		return Forecast{}, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidWindow, windowMonths, MaxWindowMonths)
	}
	if startMonth < 1 || startMonth > 12 {
		return Forecast{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, startMonth)
	}

	o := options{labels: core.LabelsFor("en")}
	for _, opt := range opts {
		opt(&o)
	}

	f := Forecast{Months: make([]MonthlySummary, 0, windowMonths)}
	base := core.MonthIndex(startYear, startMonth)
	for i := 0; i < windowMonths; i++ {
		idx := base + i
		year, month := idx/12, idx%12+1

		m := MonthlySummary{
			Label:          o.labels.MonthLabel(year, month),
			Year:           year,
			Month:          month,
			IsCurrentMonth: i == 0,
			TransactionIDs: []string{},
		}
		for _, t := range txs {
			if !Occurs(t, year, month) {
				continue
			}
			switch t.Type {
			case core.Income:
				m.Income = m.Income.Add(t.Amount)
			case core.Expense:
				m.Expense = m.Expense.Add(t.Amount)
			default:
				continue
			}
			m.TransactionIDs = append(m.TransactionIDs, t.ID)
		}
		m.Balance = m.Income.Sub(m.Expense)

		f.TotalIncome = f.TotalIncome.Add(m.Income)
		f.TotalExpense = f.TotalExpense.Add(m.Expense)
		f.Months = append(f.Months, m)
	}
	f.TotalBalance = f.TotalIncome.Sub(f.TotalExpense)
	return f, nil
}

// ProjectFrom projects windowMonths starting at now's month.
func ProjectFrom(txs []core.Transaction, windowMonths int, now time.Time, opts ...Option) (Forecast, error) {
	return Project(txs, windowMonths, now.Year(), int(now.Month()), opts...)
}
