package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Once      Frequency = "once"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Biannual  Frequency = "biannual"
	Yearly    Frequency = "yearly"
	// Custom is a fixed-count monthly installment plan.
	Custom Frequency = "custom"
)

const (
	Salary         Category = "salary"
	Rent           Category = "rent"
	Groceries      Category = "groceries"
	Bills          Category = "bills"
	Transportation Category = "transportation"
	Entertainment  Category = "entertainment"
	Health         Category = "health"
	Education      Category = "education"
	Loan           Category = "loan"
	Other          Category = "other"
)

// MaxDescriptionLength bounds Draft.Description in bytes.
const MaxDescriptionLength = 200

type (
	TransactionType string
	Frequency       string
	Category        string

	// Draft is a transaction that has not been assigned an id by a store.
	Draft struct {
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Category    Category        `json:"category"`
		Date        Date            `json:"date"`
		Frequency   Frequency       `json:"frequency"`
		Notes       string          `json:"notes,omitempty"`
		// InstallmentCount is only meaningful when Frequency is Custom.
		InstallmentCount *int `json:"installmentCount,omitempty"`
	}

	// Transaction is the persisted entity. Date is the first occurrence for
	// recurring frequencies.
	Transaction struct {
		ID string `json:"id"`
		Draft
	}
)

var (
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidInstallments = errors.New("installment plans need at least 2 installments")
	ErrEmptyID             = errors.New("empty transaction id")
)

// AllCategories returns the closed category set in display order.
func AllCategories() []Category {
	return []Category{Salary, Rent, Groceries, Bills, Transportation, Entertainment, Health, Education, Loan, Other}
}

// AllFrequencies returns every supported frequency.
func AllFrequencies() []Frequency {
	return []Frequency{Once, Monthly, Quarterly, Biannual, Yearly, Custom}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

func (f Frequency) IsValid() bool {
	for _, known := range AllFrequencies() {
		if f == known {
			return true
		}
	}
	return false
}

// Installments returns the installment count of a custom plan, or 0 when the
// transaction is not a plan or the count is missing.
func (d Draft) Installments() int {
	if d.Frequency != Custom || d.InstallmentCount == nil {
		return 0
	}
	return *d.InstallmentCount
}

// Signed returns the amount with the sign implied by the transaction type.
func (d Draft) Signed() Money {
	if d.Type == Expense {
		return Money{Cents: -d.Amount.Cents}
	}
	return d.Amount
}

func (d Draft) Validate() error {
	if !d.Type.IsValid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(d.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(d.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if !d.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if d.Frequency == Custom && d.Installments() < 2 {
		return ErrInvalidInstallments
	}
	return nil
}

// Normalized drops an installment count that has no meaning for the frequency.
func (d Draft) Normalized() Draft {
	if d.Frequency != Custom {
		d.InstallmentCount = nil
	}
	d.Description = strings.TrimSpace(d.Description)
	d.Notes = strings.TrimSpace(d.Notes)
	return d
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	return t.Draft.Validate()
}

// InstallmentPosition returns the 1-based installment of a custom plan that
// falls in asOf's month, clamped to [1, N], together with N. ok is false for
// anything that is not a custom plan.
func (t Transaction) InstallmentPosition(asOf time.Time) (current, total int, ok bool) {
	total = t.Installments()
	if total < 1 {
		return 0, 0, false
	}
	current = MonthsBetween(t.Date, DateOf(asOf)) + 1
	if current > total {
		current = total
	}
	if current < 1 {
		current = 1
	}
	return current, total, true
}

// IntPtr is a helper for optional integer fields such as InstallmentCount.
func IntPtr(v int) *int {
	return &v
}
