package http

import (
	"net/http"
	"time"

	"budget/internal/log"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     s.storeType,
	}
	if s.ping != nil {
		ctx, cancel := requestContext(r)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			resp.Status = "unavailable"
			resp.Error = "store unreachable"
			NewJSONResponse().Status(http.StatusServiceUnavailable).Payload(resp).Write(w)
			return
		}
	}
	NewJSONResponse().Payload(resp).Write(w)
}

type labelsResponse struct {
	Categories   map[string]string `json:"categories"`
	Frequencies  map[string]string `json:"frequencies"`
	Months       []string          `json:"months"`
	Installments string            `json:"installments"`
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	labels := s.svc.Labels()
	NewJSONResponse().Payload(labelsResponse{
		Categories:   labels.Categories,
		Frequencies:  labels.Frequencies,
		Months:       labels.Months,
		Installments: labels.Installments,
	}).Header("Cache-Control", "public, max-age=3600").Write(w)
}
