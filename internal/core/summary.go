package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// Summary holds the totals of a set of transactions taken at face value,
// without recurrence.
type Summary struct {
	Income            Money            `json:"income"`
	Expense           Money            `json:"expense"`
	Balance           Money            `json:"balance"`
	Count             int              `json:"count"`
	IncomeByCategory  []CategoryAmount `json:"incomeByCategory"`
	ExpenseByCategory []CategoryAmount `json:"expenseByCategory"`
}
