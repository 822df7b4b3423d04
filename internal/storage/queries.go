package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// TransactionRow mirrors one row of the transactions table.
type TransactionRow struct {
	ID               string
	Type             string
	Description      string
	AmountCents      int64
	Category         string
	Date             string
	Frequency        string
	Notes            string
	InstallmentCount sql.NullInt64
}

const listTransactions = `
SELECT id, type, description, amount_cents, category, date, frequency, notes, installment_count
FROM transactions
ORDER BY created_at, rowid
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Type,
			&i.Description,
			&i.AmountCents,
			&i.Category,
			&i.Date,
			&i.Frequency,
			&i.Notes,
			&i.InstallmentCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `
INSERT INTO transactions (id, type, description, amount_cents, category, date, frequency, notes, installment_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.Type,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.Frequency,
		arg.Notes,
		arg.InstallmentCount,
	)
	return err
}

const updateTransaction = `
UPDATE transactions
SET type = ?, description = ?, amount_cents = ?, category = ?, date = ?, frequency = ?,
    notes = ?, installment_count = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.Frequency,
		arg.Notes,
		arg.InstallmentCount,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions)
	var count int64
	err := row.Scan(&count)
	return count, err
}
