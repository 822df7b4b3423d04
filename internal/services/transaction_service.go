package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/forecast"
	"budget/internal/log"
	"budget/internal/store"
)

// Event operations published after successful mutations.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventImported = "imported"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	forecastCacheMax = 64
)

// EventPublisher announces store changes to other processes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, op string, ids []string, version int64) error
}

// Options tunes a TransactionService. Zero values select defaults.
type Options struct {
	Labels         core.Labels
	ForecastMonths int
	ExportPrefix   string
	CacheTTL       time.Duration
	Now            func() time.Time
}

// TransactionService orchestrates store access, the forecast engine, change
// events and subscriber notifications.
type TransactionService struct {
	store     store.TransactionStore
	publisher EventPublisher
	notifier  Notifier
	logger    *log.Logger

	labels         core.Labels
	forecastMonths int
	exportPrefix   string
	now            func() time.Time

	version   atomic.Int64
	forecasts *cache.Loader[forecast.Forecast]
	lru       *cache.LRUCache[forecast.Forecast]

	subMu  sync.Mutex
	nextID int
	subs   map[int]func([]core.Transaction)
}

// NewTransactionService wires a service over st. publisher and notifier may
// be nil.
func NewTransactionService(st store.TransactionStore, publisher EventPublisher, notifier Notifier, logger *log.Logger, opts Options) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opts.Labels.Categories == nil {
		opts.Labels = core.LabelsFor("en")
	}
	if opts.ForecastMonths <= 0 {
		opts.ForecastMonths = forecast.DefaultWindowMonths
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = DefaultExportPrefix
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	lru := cache.NewLRUCache[forecast.Forecast](forecastCacheMax, opts.CacheTTL)
	return &TransactionService{
		store:          st,
		publisher:      publisher,
		notifier:       notifier,
		logger:         logger.WithComponent(log.ComponentService),
		labels:         opts.Labels,
		forecastMonths: opts.ForecastMonths,
		exportPrefix:   opts.ExportPrefix,
		now:            opts.Now,
		forecasts:      cache.NewLoader[forecast.Forecast](lru),
		lru:            lru,
		subs:           map[int]func([]core.Transaction){},
	}
}

// ForecastCache exposes the forecast cache so a cache.Manager can sweep it.
func (s *TransactionService) ForecastCache() cache.Cleaner {
	return s.lru
}

// Labels returns the display names used for categories, frequencies and months.
func (s *TransactionService) Labels() core.Labels {
	return s.labels
}

// Now returns the service clock's current time.
func (s *TransactionService) Now() time.Time {
	return s.now()
}

// Version is bumped after every successful mutation.
func (s *TransactionService) Version() int64 {
	return s.version.Load()
}

// List returns the transactions in period, newest first.
func (s *TransactionService) List(ctx context.Context, period forecast.Period) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return forecast.SortNewestFirst(forecast.FilterByPeriod(txs, period, s.now())), nil
}

// Create stores d. An installment plan is expanded into one one-time record
// per installment; the ids are returned in installment order. When only some
// installments could be stored the error is a *PartialError.
func (s *TransactionService) Create(ctx context.Context, d core.Draft) ([]string, error) {
	d = d.Normalized()
	if err := d.Validate(); err != nil {
		s.notifier.Failure(ctx, "Transaction was not added", err)
		return nil, err
	}

	drafts := forecast.ExpandInstallments(d)
	ids := make([]string, 0, len(drafts))
	var firstErr error
	failed := 0
	for _, item := range drafts {
		id, err := s.store.Create(ctx, item)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			s.logger.ErrorContext(ctx, "Failed to store transaction",
				log.NewFields().
					WithOperation(log.OpCreate).
					WithTransaction("", string(item.Type), item.Amount.Cents, string(item.Category), string(item.Frequency)).
					WithError(err).
					ToSlice()...)
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		s.notifier.Failure(ctx, "Transaction was not added", firstErr)
		return nil, fmt.Errorf("create transaction: %w", firstErr)
	}

	s.afterMutation(ctx, EventCreated, ids)
	s.logger.InfoContext(ctx, "Transactions created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(ids[0], string(d.Type), d.Amount.Cents, string(d.Category), string(d.Frequency)).
			WithCount(len(ids)).
			ToSlice()...)

	if failed > 0 {
		err := &PartialError{Succeeded: ids, Failed: failed, Err: firstErr}
		s.notifier.Failure(ctx, "Some installments were not added", err)
		return ids, err
	}
	if len(ids) > 1 {
		s.notifier.Success(ctx, fmt.Sprintf("%d installments added", len(ids)))
	} else {
		s.notifier.Success(ctx, "Transaction added")
	}
	return ids, nil
}

// Update replaces every field of an existing transaction.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	t.Draft = t.Draft.Normalized()
	if err := t.Validate(); err != nil {
		s.notifier.Failure(ctx, "Transaction was not updated", err)
		return err
	}
	if err := s.store.Update(ctx, t); err != nil {
		s.notifier.Failure(ctx, "Transaction was not updated", err)
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}

	s.afterMutation(ctx, EventUpdated, []string{t.ID})
	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithTransaction(t.ID, string(t.Type), t.Amount.Cents, string(t.Category), string(t.Frequency)).
			ToSlice()...)
	s.notifier.Success(ctx, "Transaction updated")
	return nil
}

// Delete removes the transaction with id.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Failure(ctx, "Transaction was not deleted", err)
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	s.afterMutation(ctx, EventDeleted, []string{id})
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	s.notifier.Success(ctx, "Transaction deleted")
	return nil
}

// Summary totals the transactions dated within [start, end] at face value.
// Zero bounds select the current month.
func (s *TransactionService) Summary(ctx context.Context, start, end time.Time) (core.Summary, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	if start.IsZero() && end.IsZero() {
		start, end = forecast.MonthRange(s.now())
	}
	return forecast.Summarize(forecast.FilterByRange(txs, start, end)), nil
}

// Forecast projects months months from the current month. months <= 0 uses
// the configured default. Results are cached per store snapshot.
func (s *TransactionService) Forecast(ctx context.Context, months int) (forecast.Forecast, error) {
	if months <= 0 {
		months = s.forecastMonths
	}
	if months > forecast.MaxWindowMonths {
		return forecast.Forecast{}, fmt.Errorf("%w: %d (must be 1..%d)", forecast.ErrInvalidWindow, months, forecast.MaxWindowMonths)
	}

	txs, err := s.store.List(ctx)
	if err != nil {
		return forecast.Forecast{}, fmt.Errorf("forecast: %w", err)
	}

	now := s.now()
	key := fmt.Sprintf("%s:%d:%04d-%02d", snapshotKey(txs), months, now.Year(), int(now.Month()))
	return s.forecasts.GetOrLoad(ctx, key, func(ctx context.Context) (forecast.Forecast, error) {
		f, err := forecast.ProjectFrom(txs, months, now, forecast.WithLabels(s.labels))
		if err != nil {
			return forecast.Forecast{}, err
		}
		s.logger.DebugContext(ctx, "Forecast computed",
			log.FieldOperation, log.OpForecast,
			log.FieldWindowMonths, months,
			log.FieldCount, len(txs))
		return f, nil
	})
}

// snapshotKey fingerprints txs. Writes made by other processes sharing the
// store change the key, so a cached forecast never outlives its snapshot.
func snapshotKey(txs []core.Transaction) string {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	for _, t := range txs {
		_ = enc.Encode(t)
	}
	return fmt.Sprintf("%d-%016x", len(txs), h.Sum64())
}

// Subscribe registers fn to receive the full snapshot after every mutation
// made through the service. The returned function removes it.
func (s *TransactionService) Subscribe(fn func([]core.Transaction)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *TransactionService) afterMutation(ctx context.Context, op string, ids []string) {
	version := s.version.Add(1)
	s.forecasts.Invalidate()

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping change event", log.FieldOperation, op)
	} else if err := s.publisher.PublishTransactionEvent(ctx, op, ids, version); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldOperation, log.OpPublish,
			"event", op,
			log.FieldError, err)
	}

	s.subMu.Lock()
	fns := make([]func([]core.Transaction), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}

	snapshot, err := s.store.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load snapshot for subscribers", log.FieldError, err)
		return
	}
	for _, fn := range fns {
		fn(append([]core.Transaction(nil), snapshot...))
	}
}

// IsNotFound reports whether err means the transaction does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
