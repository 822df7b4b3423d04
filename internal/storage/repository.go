// Package storage is the SQLite transaction store. The schema is managed with
// golang-migrate from the embedded migrations directory.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.TransactionStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and that the transactions table is readable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	_, err := r.queries.CountTransactions(ctx)
	return err
}

// List returns all transactions in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Create inserts d under a new uuid.
func (r *SQLiteRepository) Create(ctx context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	t := core.Transaction{ID: uuid.NewString(), Draft: d}
	if err := r.queries.CreateTransaction(ctx, toRow(t)); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"transaction_id", t.ID,
		"transaction_type", t.Type,
		"amount_cents", t.Amount.Cents,
		"frequency", t.Frequency)

	return t.ID, nil
}

// Update replaces every column of the row with t.ID.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateTransaction(ctx, toRow(t))
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the row with id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toRow(t core.Transaction) TransactionRow {
	row := TransactionRow{
		ID:          t.ID,
		Type:        string(t.Type),
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Category:    string(t.Category),
		Date:        t.Date.String(),
		Frequency:   string(t.Frequency),
		Notes:       t.Notes,
	}
	if t.InstallmentCount != nil {
		row.InstallmentCount = sql.NullInt64{Int64: int64(*t.InstallmentCount), Valid: true}
	}
	return row
}

func fromRow(row TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID: row.ID,
		Draft: core.Draft{
			Type:        core.TransactionType(row.Type),
			Description: row.Description,
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    core.Category(row.Category),
			Date:        date,
			Frequency:   core.Frequency(row.Frequency),
			Notes:       row.Notes,
		},
	}
	if row.InstallmentCount.Valid {
		t.InstallmentCount = core.IntPtr(int(row.InstallmentCount.Int64))
	}
	return t, nil
}
