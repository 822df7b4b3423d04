package http

import (
	"net/http"

	"budget/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	summary, err := s.svc.Summary(ctx, rng.Start, rng.End)
	if err != nil {
		s.fail(w, r, log.OpSummary, err)
		return
	}
	NewJSONResponse().Payload(summary).Write(w)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	months, err := ParseMonths(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	f, err := s.svc.Forecast(ctx, months)
	if err != nil {
		s.fail(w, r, log.OpForecast, err)
		return
	}
	NewJSONResponse().Payload(f).Write(w)
}
