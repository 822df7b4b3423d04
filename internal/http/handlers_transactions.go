package http

import (
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

type listResponse struct {
	Transactions []transactionView `json:"transactions"`
	Count        int               `json:"count"`
}

// transactionView adds display fields to a stored transaction.
type transactionView struct {
	core.Transaction
	CategoryLabel  string `json:"categoryLabel"`
	FrequencyLabel string `json:"frequencyLabel"`
}

type createResponse struct {
	IDs   []string `json:"ids"`
	Error string   `json:"error,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	txs, err := s.svc.List(ctx, period)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}

	labels := s.svc.Labels()
	now := s.svc.Now()
	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, transactionView{
			Transaction:    t,
			CategoryLabel:  labels.Category(t.Category),
			FrequencyLabel: labels.FrequencyLabel(t, now),
		})
	}
	NewJSONResponse().Payload(listResponse{Transactions: views, Count: len(views)}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var d core.Draft
	if err := decodeJSONBody(w, r, &d); err != nil {
		s.badBody(w, err)
		return
	}
	d.Description = sanitizeInput(d.Description)
	d.Notes = sanitizeInput(d.Notes)

	ctx, cancel := requestContext(r)
	defer cancel()

	ids, err := s.svc.Create(ctx, d)
	var partial *services.PartialError
	switch {
	case errors.As(err, &partial):
		s.logger.WarnContext(ctx, "Installment plan partially stored", log.FieldCount, len(ids), log.FieldError, err)
		NewJSONResponse().Status(http.StatusMultiStatus).Payload(createResponse{IDs: ids, Error: err.Error()}).Write(w)
	case err != nil:
		s.fail(w, r, log.OpCreate, err)
	default:
		NewJSONResponse().Status(http.StatusCreated).Payload(createResponse{IDs: ids}).Write(w)
	}
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var d core.Draft
	if err := decodeJSONBody(w, r, &d); err != nil {
		s.badBody(w, err)
		return
	}
	d.Description = sanitizeInput(d.Description)
	d.Notes = sanitizeInput(d.Notes)

	ctx, cancel := requestContext(r)
	defer cancel()

	t := core.Transaction{ID: id, Draft: d}
	if err := s.svc.Update(ctx, t); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Payload(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.svc.Delete(ctx, r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) badBody(w http.ResponseWriter, err error) {
	if isDraftError(err) {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	BadRequestError(err.Error()).Write(w)
}

// fail logs err and writes the matching error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
	}
	errorFor(err).Write(w)
}
