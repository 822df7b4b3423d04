// Package memory is an in-process transaction store. When a data file is set
// every change is written to it as a JSON array, and the file is re-read
// before each operation so that processes sharing it see each other's
// changes. Two writes landing at the same instant are last-writer-wins.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/store"
)

// IDPrefix marks ids assigned by this store.
const IDPrefix = "local_"

type Store struct {
	mu    sync.Mutex
	path  string
	items []core.Transaction

	subMu  sync.Mutex
	nextID int
	subs   map[int]func([]core.Transaction)
}

var (
	_ store.TransactionStore = (*Store)(nil)
	_ store.Subscriber       = (*Store)(nil)
)

// New returns an empty store without persistence.
func New() *Store {
	return &Store{subs: map[int]func([]core.Transaction){}}
}

// NewFromFile returns a store persisted to path. A missing file starts an
// empty store; a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	s := New()
	s.path = path
	items, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

// List returns a copy of all transactions in insertion order.
func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(); err != nil {
		return nil, err
	}
	return append([]core.Transaction(nil), s.items...), nil
}

// Create stores d under a new id.
func (s *Store) Create(_ context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	id := IDPrefix + uuid.NewString()

	s.mu.Lock()
	if err := s.reload(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	next := make([]core.Transaction, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, core.Transaction{ID: id, Draft: d})
	snapshot, err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	s.publish(snapshot)
	return id, nil
}

// Update replaces the record with t.ID.
func (s *Store) Update(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.reload(); err != nil {
		s.mu.Unlock()
		return err
	}
	idx := s.indexOf(t.ID)
	if idx < 0 {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	next := append([]core.Transaction(nil), s.items...)
	next[idx] = t
	snapshot, err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(snapshot)
	return nil
}

// Delete removes the record with id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if err := s.reload(); err != nil {
		s.mu.Unlock()
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	next := make([]core.Transaction, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	snapshot, err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(snapshot)
	return nil
}

// Subscribe registers fn for snapshots taken after each change.
func (s *Store) Subscribe(fn func([]core.Transaction)) func() {
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

// commit persists next and installs it. Callers hold s.mu. The in-memory
// state only changes once the file write has succeeded.
func (s *Store) commit(next []core.Transaction) ([]core.Transaction, error) {
	if s.path != "" {
		if err := writeFile(s.path, next); err != nil {
			return nil, err
		}
	}
	s.items = next
	return append([]core.Transaction(nil), next...), nil
}

// reload replaces the in-memory state with the data file's contents. Callers
// hold s.mu.
func (s *Store) reload() error {
	if s.path == "" {
		return nil
	}
	items, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publish(snapshot []core.Transaction) {
	s.subMu.Lock()
	fns := make([]func([]core.Transaction), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(append([]core.Transaction(nil), snapshot...))
	}
}

// readFile decodes the data file at path. A missing or empty file holds no
// transactions.
func readFile(path string) ([]core.Transaction, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []core.Transaction
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}
	return items, nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, items []core.Transaction) error {
	if items == nil {
		items = []core.Transaction{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".budget-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
