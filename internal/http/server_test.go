package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/store/memory"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) (*Server, *services.TransactionService) {
	t.Helper()
	svc := services.NewTransactionService(memory.New(), nil, nil, nil, services.Options{
		Now: func() time.Time { return fixedNow },
	})
	srv := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

const rentBody = `{"type":"expense","description":"Rent","amount":800,"category":"rent","date":"2024-01-05","frequency":"monthly"}`

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Options{StoreType: "memory"})

	rec := do(srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}

	ready := decodeBody[healthResponse](t, do(srv, http.MethodGet, "/readyz", ""))
	if ready.Status != "ready" || ready.Store != "memory" {
		t.Errorf("unexpected readiness %+v", ready)
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	srv, _ := newTestServer(t, Options{
		Ping: func(context.Context) error { return errors.New("connection refused") },
	})

	rec := do(srv, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("store error detail must not leak")
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := do(srv, http.MethodPost, "/api/transactions", rentBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[createResponse](t, rec)
	if len(created.IDs) != 1 {
		t.Fatalf("ids = %v", created.IDs)
	}
	id := created.IDs[0]

	list := decodeBody[listResponse](t, do(srv, http.MethodGet, "/api/transactions", ""))
	if list.Count != 1 || list.Transactions[0].ID != id {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Transactions[0].CategoryLabel != "Rent" || list.Transactions[0].FrequencyLabel != "Monthly" {
		t.Errorf("labels = %q, %q", list.Transactions[0].CategoryLabel, list.Transactions[0].FrequencyLabel)
	}

	update := strings.Replace(rentBody, `"amount":800`, `"amount":850.5`, 1)
	rec = do(srv, http.MethodPut, "/api/transactions/"+id, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Transaction](t, rec)
	if updated.ID != id || updated.Amount.Cents != 85050 {
		t.Errorf("unexpected update %+v", updated)
	}

	rec = do(srv, http.MethodDelete, "/api/transactions/"+id, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(srv, http.MethodDelete, "/api/transactions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateInstallmentPlan(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	body := `{"type":"expense","description":"Laptop","amount":300,"category":"other","date":"2024-01-31","frequency":"custom","installmentCount":3}`

	rec := do(srv, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if ids := decodeBody[createResponse](t, rec).IDs; len(ids) != 3 {
		t.Errorf("got %d ids, want 3", len(ids))
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"malformed json", `{"type":`, http.StatusBadRequest},
		{"unknown field", `{"colour":"red"}`, http.StatusBadRequest},
		{"negative amount", strings.Replace(rentBody, "800", "-1", 1), http.StatusUnprocessableEntity},
		{"bad category", strings.Replace(rentBody, `"rent"`, `"pets"`, 1), http.StatusUnprocessableEntity},
		{"blank description", strings.Replace(rentBody, `"Rent"`, `"   "`, 1), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, Options{})
			rec := do(srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if _, ok := decodeBody[map[string]string](t, rec)["error"]; !ok {
				t.Error("expected an error field")
			}
		})
	}
}

func TestUpdateUnknownID(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(srv, http.MethodPut, "/api/transactions/missing", rentBody)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListPeriod(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/transactions", strings.Replace(rentBody, "2024-01-05", "2024-03-02", 1))
	do(srv, http.MethodPost, "/api/transactions", strings.Replace(rentBody, "2024-01-05", "2024-02-02", 1))

	current := decodeBody[listResponse](t, do(srv, http.MethodGet, "/api/transactions?period=current", ""))
	if current.Count != 1 {
		t.Errorf("current count = %d, want 1", current.Count)
	}
	all := decodeBody[listResponse](t, do(srv, http.MethodGet, "/api/transactions?period=all", ""))
	if all.Count != 2 || all.Transactions[0].Date.String() != "2024-03-02" {
		t.Errorf("all = %+v", all)
	}

	if rec := do(srv, http.MethodGet, "/api/transactions?period=next", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad period status = %d", rec.Code)
	}
}

func TestSummaryAndForecast(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/transactions", rentBody)
	salary := `{"type":"income","description":"Salary","amount":3000,"category":"salary","date":"2024-03-01","frequency":"once"}`
	do(srv, http.MethodPost, "/api/transactions", salary)

	summary := decodeBody[core.Summary](t, do(srv, http.MethodGet, "/api/summary", ""))
	if summary.Count != 1 || summary.Income.Cents != 300000 {
		t.Errorf("current month summary = %+v", summary)
	}

	ranged := decodeBody[core.Summary](t, do(srv, http.MethodGet, "/api/summary?start=2024-01-01&end=2024-03-31", ""))
	if ranged.Count != 2 || ranged.Expense.Cents != 80000 {
		t.Errorf("ranged summary = %+v", ranged)
	}

	// Balances can be negative, so decode amounts as plain numbers.
	type month struct {
		IsCurrentMonth bool    `json:"isCurrentMonth"`
		Income         float64 `json:"income"`
		Expense        float64 `json:"expense"`
		Balance        float64 `json:"balance"`
	}
	f := decodeBody[struct {
		Months []month `json:"months"`
	}](t, do(srv, http.MethodGet, "/api/forecast?months=3", ""))
	if len(f.Months) != 3 {
		t.Fatalf("months = %d, want 3", len(f.Months))
	}
	if !f.Months[0].IsCurrentMonth || f.Months[0].Expense != 800 || f.Months[0].Income != 3000 {
		t.Errorf("first month = %+v", f.Months[0])
	}
	if f.Months[1].Income != 0 || f.Months[1].Balance != -800 {
		t.Errorf("second month = %+v", f.Months[1])
	}
}

func TestReportParameterErrors(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	for _, target := range []string{
		"/api/summary?start=2024-01-01",
		"/api/summary?start=2024-02-01&end=2024-01-01",
		"/api/summary?start=yesterday&end=2024-01-01",
		"/api/forecast?months=0",
		"/api/forecast?months=abc",
		"/api/forecast?months=1000",
	} {
		if rec := do(srv, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestImportBodyTooLarge(t *testing.T) {
	srv, svc := newTestServer(t, Options{})
	body := "[" + strings.Repeat(" ", maxBodyBytes) + "]"

	rec := do(srv, http.MethodPost, "/api/import", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (body %s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "internal error") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if svc.Version() != 0 {
		t.Errorf("version = %d, want no mutation", svc.Version())
	}
}

func TestExportImportShare(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/transactions", rentBody)

	rec := do(srv, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="budget-export-2024-03-10.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	exported := rec.Body.String()

	other, _ := newTestServer(t, Options{})
	rec = do(other, http.MethodPost, "/api/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d body %s", rec.Code, rec.Body.String())
	}
	if result := decodeBody[services.ImportResult](t, rec); result.Created != 1 {
		t.Errorf("import result = %+v", result)
	}

	rec = do(other, http.MethodPost, "/api/import", `[{"id":"x","amount":1}]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid import status = %d, want 400", rec.Code)
	}

	share := decodeBody[shareResponse](t, do(srv, http.MethodGet, "/api/share", ""))
	txs, err := services.DecodeShareLink(share.URL)
	if err != nil || len(txs) != 1 {
		t.Errorf("share link decoded to %d transactions, err %v", len(txs), err)
	}
}

func TestLabels(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := do(srv, http.MethodGet, "/api/labels", "")
	labels := decodeBody[labelsResponse](t, rec)
	if labels.Categories["groceries"] != "Groceries" || len(labels.Months) != 12 {
		t.Errorf("unexpected labels %+v", labels)
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rec := do(srv, http.MethodPost, "/api/transactions", rentBody); rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(srv, http.MethodPost, "/api/transactions", rentBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After")
	}

	for i := 0; i < 5; i++ {
		if rec := do(srv, http.MethodGet, "/api/transactions", ""); rec.Code != http.StatusOK {
			t.Fatalf("read %d status = %d", i, rec.Code)
		}
	}
}

func TestBlockedMethodsAndUnknownRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	if rec := do(srv, "TRACE", "/api/transactions", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("TRACE status = %d", rec.Code)
	}
	if rec := do(srv, http.MethodGet, "/api/nothing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
	if rec := do(srv, http.MethodPatch, "/api/transactions/1", rentBody); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d", rec.Code)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
