// Package worker keeps the spreadsheet mirror in step with the transaction
// store.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/sheets"
	"budget/internal/store"
)

// MirrorWorker re-mirrors the full store snapshot when a change event arrives
// and on a fixed interval, which recovers from lost events.
type MirrorWorker struct {
	store    store.TransactionStore
	mirror   sheets.Mirror
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastStart time.Time
	syncs     int
}

func NewMirrorWorker(st store.TransactionStore, mirror sheets.Mirror, interval time.Duration, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		store:    st,
		mirror:   mirror,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleEvent processes a change event from AMQP. Events stamped before the
// start of the last completed sync are already reflected and are skipped.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	w.mu.Lock()
	lastStart := w.lastStart
	w.mu.Unlock()

	if !msg.Timestamp.IsZero() && !lastStart.IsZero() && msg.Timestamp.Before(lastStart) {
		w.logger.DebugContext(ctx, "Skipping stale change event",
			log.FieldOperation, msg.Op,
			"version", msg.Version)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldOperation, msg.Op,
		log.FieldCount, len(msg.IDs),
		"version", msg.Version)
	return w.Sync(ctx)
}

// Sync mirrors the current snapshot.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	start := w.now()

	txs, err := w.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := w.mirror.Mirror(ctx, txs); err != nil {
		return fmt.Errorf("mirror transactions: %w", err)
	}

	w.mu.Lock()
	w.lastStart = start
	w.syncs++
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Mirror sync completed",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(txs))
	return nil
}

// Syncs counts completed syncs.
func (w *MirrorWorker) Syncs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncs
}

// RunPeriodic syncs immediately and then every interval until ctx is done.
// Failed syncs are logged and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context) error {
	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sync failed", log.FieldError, err)
	}
	if w.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}
