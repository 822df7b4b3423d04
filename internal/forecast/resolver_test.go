package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"budget/internal/core"
)

func tx(id string, typ core.TransactionType, cents int64, freq core.Frequency, date core.Date) core.Transaction {
	return core.Transaction{ID: id, Draft: core.Draft{
		Type:        typ,
		Description: id,
		Amount:      core.Money{Cents: cents},
		Category:    core.Other,
		Date:        date,
		Frequency:   freq,
	}}
}

func plan(id string, cents int64, n int, date core.Date) core.Transaction {
	t := tx(id, core.Expense, cents, core.Custom, date)
	t.InstallmentCount = core.IntPtr(n)
	return t
}

func TestOccurs_Once(t *testing.T) {
	once := tx("bonus", core.Income, 100000, core.Once, core.NewDate(2024, 3, 15))

	for y := 2023; y <= 2025; y++ {
		for m := 1; m <= 12; m++ {
			want := y == 2024 && m == 3
			assert.Equal(t, want, Occurs(once, y, m), "%d-%02d", y, m)
		}
	}
}

func TestOccurs_Monthly(t *testing.T) {
	rent := tx("rent", core.Expense, 150000, core.Monthly, core.NewDate(2024, 1, 1))

	assert.False(t, Occurs(rent, 2023, 12), "before anchor")
	for i := 0; i < 36; i++ {
		idx := core.MonthIndex(2024, 1) + i
		assert.True(t, Occurs(rent, idx/12, idx%12+1), "offset %d", i)
	}
}

func TestOccurs_Yearly(t *testing.T) {
	insurance := tx("insurance", core.Expense, 60000, core.Yearly, core.NewDate(2023, 3, 10))

	tests := []struct {
		name        string
		year, month int
		want        bool
	}{
		{"anchor month", 2023, 3, true},
		{"anniversary", 2025, 3, true},
		{"same month before anchor year", 2022, 3, false},
		{"other month", 2024, 4, false},
		{"month before anchor in anchor year", 2023, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Occurs(insurance, tt.year, tt.month))
		})
	}
}

func TestOccurs_Quarterly(t *testing.T) {
	tax := tx("tax", core.Expense, 30000, core.Quarterly, core.NewDate(2024, 1, 20))

	var hits []int
	for m := 1; m <= 12; m++ {
		if Occurs(tax, 2024, m) {
			hits = append(hits, m)
		}
	}
	assert.Equal(t, []int{1, 4, 7, 10}, hits)
	assert.True(t, Occurs(tax, 2025, 1))
	assert.False(t, Occurs(tax, 2025, 2))
	assert.False(t, Occurs(tax, 2023, 10))
}

func TestOccurs_Biannual(t *testing.T) {
	service := tx("service", core.Expense, 20000, core.Biannual, core.NewDate(2024, 5, 1))

	var hits []int
	for i := 0; i < 24; i++ {
		idx := core.MonthIndex(2024, 5) + i
		if Occurs(service, idx/12, idx%12+1) {
			hits = append(hits, i)
		}
	}
	assert.Equal(t, []int{0, 6, 12, 18}, hits)
}

func TestOccurs_Custom(t *testing.T) {
	laptop := plan("laptop", 10000, 12, core.NewDate(2024, 1, 5))

	assert.False(t, Occurs(laptop, 2023, 12))
	assert.True(t, Occurs(laptop, 2024, 1))
	assert.True(t, Occurs(laptop, 2024, 12), "12th installment")
	assert.False(t, Occurs(laptop, 2025, 1), "past the last installment")

	missing := laptop
	missing.InstallmentCount = nil
	assert.False(t, Occurs(missing, 2024, 1), "nil count never matches")

	zero := laptop
	zero.InstallmentCount = core.IntPtr(0)
	assert.False(t, Occurs(zero, 2024, 1), "zero count never matches")
}

func TestOccurs_UnknownFrequency(t *testing.T) {
	weekly := tx("weekly", core.Expense, 100, core.Frequency("weekly"), core.NewDate(2024, 1, 1))
	assert.False(t, Occurs(weekly, 2024, 1))

	missing := tx("missing", core.Expense, 100, "", core.NewDate(2024, 1, 1))
	assert.False(t, Occurs(missing, 2024, 1))
}

func TestContribution(t *testing.T) {
	salary := tx("salary", core.Income, 500000, core.Monthly, core.NewDate(2024, 1, 1))
	rent := tx("rent", core.Expense, 150000, core.Monthly, core.NewDate(2024, 1, 1))

	got, ok := Contribution(salary, 2024, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(500000), got.Cents)

	got, ok = Contribution(rent, 2024, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(-150000), got.Cents)

	_, ok = Contribution(rent, 2023, 12)
	assert.False(t, ok)
}

type everyOtherMonth struct{}

func (everyOtherMonth) Occurs(_ core.Transaction, _, _, offset int) bool { return offset%2 == 0 }

func TestRegisterRule(t *testing.T) {
	const bimonthly core.Frequency = "bimonthly"
	RegisterRule(bimonthly, everyOtherMonth{})
	t.Cleanup(func() { delete(occurrenceRules, bimonthly) })

	gym := tx("gym", core.Expense, 100, bimonthly, core.NewDate(2024, 1, 1))
	assert.True(t, Occurs(gym, 2024, 3))
	assert.False(t, Occurs(gym, 2024, 4))

	_, err := GetRule(core.Frequency("fortnightly"))
	assert.Error(t, err)
}
