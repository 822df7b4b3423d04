// Package memory is an in-process sheets mirror. It keeps the last mirrored
// rows and is used when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"budget/internal/core"
	"budget/internal/sheets"
)

type Mirror struct {
	mu    sync.Mutex
	rows  [][]string
	syncs int
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// Mirror replaces the stored rows with txs.
func (m *Mirror) Mirror(_ context.Context, txs []core.Transaction) error {
	rows := append([][]string{sheets.Header}, sheets.Rows(txs)...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.syncs++
	return nil
}

// Rows returns the header and data rows of the last mirror.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Syncs counts completed mirrors.
func (m *Mirror) Syncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}
