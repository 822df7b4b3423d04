package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

const (
	// DefaultExportPrefix names export files when no prefix is configured.
	DefaultExportPrefix = "budget-export"

	// ShareLinkPrefix starts every sharing link.
	ShareLinkPrefix = "data:text/json;charset=utf-8,"

	maxImportBytes = 16 << 20
)

var (
	// ErrInvalidShareLink is returned for links that are not JSON data URIs.
	ErrInvalidShareLink = errors.New("invalid share link")

	// ErrImportTooLarge is returned when an import body exceeds the size limit.
	ErrImportTooLarge = errors.New("import too large")
)

// ImportResult counts the outcome of an import's write stage.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ExportFileName returns "<prefix>-YYYY-MM-DD.json" for now's calendar day.
func ExportFileName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return fmt.Sprintf("%s-%s.json", prefix, now.Format(core.DateLayout))
}

// ExportFileName returns the export file name configured for this service.
func (s *TransactionService) ExportFileName() string {
	return ExportFileName(s.exportPrefix, s.now())
}

// Export writes every transaction to w as an indented JSON array.
func (s *TransactionService) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	s.logger.InfoContext(ctx, "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(txs))
	return nil
}

// ExportFile writes the export into dir and returns the file path.
func (s *TransactionService) ExportFile(ctx context.Context, dir string, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, &buf); err != nil {
		s.notifier.Failure(ctx, "Export failed", err)
		return "", err
	}

	path := filepath.Join(dir, ExportFileName(s.exportPrefix, now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		s.notifier.Failure(ctx, "Export failed", err)
		return "", fmt.Errorf("write export file: %w", err)
	}
	s.notifier.Success(ctx, "Exported to "+path)
	return path, nil
}

// Import reads a JSON array of transactions from r. Every item is validated
// before anything is written; a *ValidationError means the store is
// untouched. Items whose id already exists replace the stored record, the
// rest are created with a fresh id.
func (s *TransactionService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		err = fmt.Errorf("read import: %w", err)
		s.notifier.Failure(ctx, "Import failed", err)
		return ImportResult{}, err
	}
	if len(data) > maxImportBytes {
		err = fmt.Errorf("%w: limit is %d MiB", ErrImportTooLarge, maxImportBytes>>20)
		s.notifier.Failure(ctx, "Import failed", err)
		return ImportResult{}, err
	}

	txs, err := parseImport(data)
	if err != nil {
		s.notifier.Failure(ctx, "Import failed", err)
		return ImportResult{}, err
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		s.notifier.Failure(ctx, "Import failed", err)
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.ID] = true
	}

	var result ImportResult
	var ids []string
	for _, t := range txs {
		if known[t.ID] {
			if err := s.store.Update(ctx, t); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", t.ID, err))
				continue
			}
			result.Updated++
			ids = append(ids, t.ID)
			continue
		}

		id, err := s.store.Create(ctx, t.Draft)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", t.ID, err))
			continue
		}
		result.Created++
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		s.afterMutation(ctx, EventImported, ids)
	}

	s.logger.InfoContext(ctx, "Transactions imported",
		log.FieldOperation, log.OpImport,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed)

	if result.Failed > 0 {
		s.notifier.Failure(ctx, fmt.Sprintf("Imported %d transactions, %d failed", result.Created+result.Updated, result.Failed), nil)
	} else {
		s.notifier.Success(ctx, fmt.Sprintf("Imported %d transactions", result.Created+result.Updated))
	}
	return result, nil
}

// ImportLink imports the transactions carried by a sharing link.
func (s *TransactionService) ImportLink(ctx context.Context, link string) (ImportResult, error) {
	data, err := shareLinkPayload(link)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, bytes.NewReader(data))
}

// parseImport is the validation stage of an import.
func parseImport(data []byte) ([]core.Transaction, error) {
	var items []map[string]json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ValidationError{Problems: []string{"expected a JSON array of transactions"}}
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &ValidationError{Problems: []string{"expected a JSON array of transactions"}}
	}

	var problems []string
	txs := make([]core.Transaction, 0, len(items))
	for i, item := range items {
		var missing []string
		for _, field := range []string{"id", "description", "date"} {
			if isBlank(item[field]) {
				missing = append(missing, field)
			}
		}
		if raw, ok := item["amount"]; !ok || string(raw) == "null" {
			missing = append(missing, "amount")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("item %d: missing %s", i, strings.Join(missing, ", ")))
			continue
		}

		raw, _ := json.Marshal(item)
		var t core.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			problems = append(problems, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		t.Draft = t.Draft.Normalized()
		if err := t.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		txs = append(txs, t)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return txs, nil
}

func isBlank(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ShareLink encodes every transaction as a JSON data URI.
func (s *TransactionService) ShareLink(ctx context.Context) (string, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("share: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("encode share link: %w", err)
	}

	s.logger.DebugContext(ctx, "Share link created",
		log.FieldOperation, log.OpShare,
		log.FieldCount, len(txs))
	return ShareLinkPrefix + encodeURIComponent(string(data)), nil
}

// DecodeShareLink parses the transactions carried by a sharing link.
func DecodeShareLink(link string) ([]core.Transaction, error) {
	data, err := shareLinkPayload(link)
	if err != nil {
		return nil, err
	}
	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShareLink, err)
	}
	return txs, nil
}

func shareLinkPayload(link string) ([]byte, error) {
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, "data:") {
		return nil, fmt.Errorf("%w: not a data URI", ErrInvalidShareLink)
	}
	header, payload, ok := strings.Cut(link, ",")
	if !ok || !strings.Contains(header, "json") {
		return nil, fmt.Errorf("%w: expected a JSON data URI", ErrInvalidShareLink)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShareLink, err)
	}
	return []byte(decoded), nil
}

// encodeURIComponent escapes everything except unreserved characters, with
// spaces as %20.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
