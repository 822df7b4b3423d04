// Package store defines the persistence ports for transactions.
package store

import (
	"context"
	"errors"

	"budget/internal/core"
)

// ErrNotFound is returned by Update and Delete when no record has the id.
var ErrNotFound = errors.New("transaction not found")

// Ports for persistence adapters.
type (
	// TransactionStore is the CRUD port every backend implements. Create
	// assigns the id; Update replaces every field of an existing record.
	TransactionStore interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Create(ctx context.Context, d core.Draft) (id string, err error)
		Update(ctx context.Context, t core.Transaction) error
		Delete(ctx context.Context, id string) error
	}

	// Subscriber pushes the full snapshot to fn after every change. The
	// returned function removes the subscription.
	Subscriber interface {
		Subscribe(fn func([]core.Transaction)) (unsubscribe func())
	}
)
