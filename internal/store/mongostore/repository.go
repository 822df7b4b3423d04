package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"budget/internal/core"
	"budget/internal/store"
)

// TransactionsCollection is the collection holding transaction documents.
const TransactionsCollection = "transactions"

type document struct {
	ID               string    `bson:"_id"`
	Type             string    `bson:"type"`
	Description      string    `bson:"description"`
	AmountCents      int64     `bson:"amountCents"`
	Category         string    `bson:"category"`
	Date             string    `bson:"date"`
	Frequency        string    `bson:"frequency"`
	Notes            string    `bson:"notes,omitempty"`
	InstallmentCount *int      `bson:"installmentCount,omitempty"`
	CreatedAt        time.Time `bson:"createdAt"`
}

// Repository implements store.TransactionStore on a MongoDB collection.
type Repository struct {
	provider CollectionProvider
	now      func() time.Time
}

var _ store.TransactionStore = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(provider CollectionProvider) *Repository {
	return &Repository{provider: provider, now: time.Now}
}

func (r *Repository) collection() DataStore {
	return r.provider.Collection(TransactionsCollection)
}

// List returns every transaction ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, doc := range docs {
		t, err := fromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", doc.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Create inserts d under a new uuid.
func (r *Repository) Create(ctx context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	doc := toDocument(core.Transaction{ID: uuid.NewString(), Draft: d})
	doc.CreatedAt = r.now().UTC()
	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	return doc.ID, nil
}

// Update replaces the mutable fields of the document with t.ID.
func (r *Repository) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	doc := toDocument(t)
	set := bson.M{
		"type":        doc.Type,
		"description": doc.Description,
		"amountCents": doc.AmountCents,
		"category":    doc.Category,
		"date":        doc.Date,
		"frequency":   doc.Frequency,
		"notes":       doc.Notes,
	}
	update := bson.M{"$set": set}
	if doc.InstallmentCount != nil {
		set["installmentCount"] = *doc.InstallmentCount
	} else {
		update["$unset"] = bson.M{"installmentCount": ""}
	}

	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the document with id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toDocument(t core.Transaction) document {
	return document{
		ID:               t.ID,
		Type:             string(t.Type),
		Description:      t.Description,
		AmountCents:      t.Amount.Cents,
		Category:         string(t.Category),
		Date:             t.Date.String(),
		Frequency:        string(t.Frequency),
		Notes:            t.Notes,
		InstallmentCount: t.InstallmentCount,
	}
}

func fromDocument(doc document) (core.Transaction, error) {
	date, err := core.ParseDate(doc.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID: doc.ID,
		Draft: core.Draft{
			Type:             core.TransactionType(doc.Type),
			Description:      doc.Description,
			Amount:           core.Money{Cents: doc.AmountCents},
			Category:         core.Category(doc.Category),
			Date:             date,
			Frequency:        core.Frequency(doc.Frequency),
			Notes:            doc.Notes,
			InstallmentCount: doc.InstallmentCount,
		},
	}, nil
}
