package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	sheetsmem "budget/internal/sheets/memory"
	"budget/internal/store/memory"
)

type failingMirror struct{ calls int }

func (m *failingMirror) Mirror(context.Context, []core.Transaction) error {
	m.calls++
	return errors.New("quota exceeded")
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	_, err := st.Create(context.Background(), core.Draft{
		Type: core.Expense, Description: "Rent", Amount: core.Money{Cents: 100000},
		Category: core.Rent, Date: core.NewDate(2024, 1, 1), Frequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return st
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	st := seededStore(t)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(st, mirror, time.Minute, nil)

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	msg := &amqp.TransactionEventMessage{Op: amqp.OpCreated, IDs: []string{"x"}, Version: 1, Timestamp: clock.Add(time.Second)}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if mirror.Syncs() != 1 {
		t.Fatalf("Syncs() = %d, want 1", mirror.Syncs())
	}
	if rows := mirror.Rows(); len(rows) != 2 || rows[1][4] != "Rent" {
		t.Errorf("Rows() = %v", rows)
	}

	stale := &amqp.TransactionEventMessage{Op: amqp.OpUpdated, Version: 2, Timestamp: clock.Add(-time.Minute)}
	if err := w.HandleEvent(context.Background(), stale); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if mirror.Syncs() != 1 {
		t.Errorf("stale event should be skipped, Syncs() = %d", mirror.Syncs())
	}

	untimed := &amqp.TransactionEventMessage{Op: amqp.OpDeleted, Version: 3}
	if err := w.HandleEvent(context.Background(), untimed); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if w.Syncs() != 2 {
		t.Errorf("event without timestamp should sync, Syncs() = %d", w.Syncs())
	}
}

func TestMirrorWorker_SyncError(t *testing.T) {
	mirror := &failingMirror{}
	w := NewMirrorWorker(seededStore(t), mirror, time.Minute, nil)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(amqp.OpCreated, nil, 1))
	if err == nil {
		t.Fatal("HandleEvent() should return the mirror error so the event is requeued")
	}
	if w.Syncs() != 0 {
		t.Errorf("failed sync should not be counted")
	}
}

func TestMirrorWorker_RunPeriodic(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(seededStore(t), mirror, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx) }()

	deadline := time.After(2 * time.Second)
	for mirror.Syncs() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 syncs, got %d", mirror.Syncs())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunPeriodic() = %v, want context.Canceled", err)
	}
}

func TestMirrorWorker_RunPeriodicKeepsGoingOnError(t *testing.T) {
	mirror := &failingMirror{}
	w := NewMirrorWorker(seededStore(t), mirror, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.RunPeriodic(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunPeriodic() = %v, want deadline exceeded", err)
	}
	if mirror.calls < 2 {
		t.Errorf("mirror called %d times, want retries on each tick", mirror.calls)
	}
}
