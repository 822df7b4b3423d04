// Package forecast decides in which calendar months a transaction occurs and
// aggregates transactions into totals and month-by-month projections.
//
// Occurrence rules follow the strategy pattern: each frequency has its own
// OccurrenceRule, looked up in a registry.
package forecast

import (
	"fmt"

	"budget/internal/core"
)

// OccurrenceRule is the strategy interface for one frequency.
type OccurrenceRule interface {
	// Occurs reports whether t falls in the target month. offset is the
	// number of months from t's anchor month to the target, and is never
	// negative when Occurs is called.
	Occurs(t core.Transaction, year, month, offset int) bool
}

// OnceRule matches the anchor month only.
type OnceRule struct{}

func (OnceRule) Occurs(_ core.Transaction, _, _, offset int) bool {
	return offset == 0
}

// EveryNMonthsRule matches the anchor month and every Interval-th month after it.
type EveryNMonthsRule struct {
	Interval int
}

func (r EveryNMonthsRule) Occurs(_ core.Transaction, _, _, offset int) bool {
	if r.Interval < 1 {
		return false
	}
	return offset%r.Interval == 0
}

// YearlyRule matches the anchor's calendar month in the anchor year and later.
type YearlyRule struct{}

func (YearlyRule) Occurs(t core.Transaction, year, month, _ int) bool {
	return month == t.Date.Month() && year >= t.Date.Year()
}

// InstallmentRule matches the first InstallmentCount months from the anchor.
type InstallmentRule struct{}

func (InstallmentRule) Occurs(t core.Transaction, _, _, offset int) bool {
	n := t.Installments()
	if n < 1 {
		return false
	}
	return offset < n
}

// occurrenceRules maps frequencies to their rules. Unknown frequencies have no
// rule and never occur.
var occurrenceRules = map[core.Frequency]OccurrenceRule{
	core.Once:      OnceRule{},
	core.Monthly:   EveryNMonthsRule{Interval: 1},
	core.Quarterly: EveryNMonthsRule{Interval: 3},
	core.Biannual:  EveryNMonthsRule{Interval: 6},
	core.Yearly:    YearlyRule{},
	core.Custom:    InstallmentRule{},
}

// GetRule returns the rule registered for frequency.
func GetRule(frequency core.Frequency) (OccurrenceRule, error) {
	rule, ok := occurrenceRules[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return rule, nil
}

// RegisterRule installs or replaces the rule for frequency. It is meant to be
// called during initialization, before any lookups run concurrently.
func RegisterRule(frequency core.Frequency, rule OccurrenceRule) {
	occurrenceRules[frequency] = rule
}

// Occurs reports whether t occurs in the given calendar month. Months before
// the anchor month never match. Missing or unknown frequencies never match.
func Occurs(t core.Transaction, year, month int) bool {
	if month < 1 || month > 12 || t.Date.IsZero() {
		return false
	}
	offset := core.MonthIndex(year, month) - t.Date.MonthIndex()
	if offset < 0 {
		return false
	}
	rule, err := GetRule(t.Frequency)
	if err != nil {
		return false
	}
	return rule.Occurs(t, year, month, offset)
}

// Contribution returns the signed amount t adds to the given month: positive
// for income, negative for expense. ok is false when t does not occur.
func Contribution(t core.Transaction, year, month int) (core.Money, bool) {
	if !Occurs(t, year, month) {
		return core.Money{}, false
	}
	return t.Signed(), true
}
