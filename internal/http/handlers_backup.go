package http

import (
	"bytes"
	"fmt"
	"net/http"

	"budget/internal/log"
)

type shareResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var buf bytes.Buffer
	if err := s.svc.Export(ctx, &buf); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.svc.ExportFileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	result, err := s.svc.Import(ctx, r.Body)
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	NewJSONResponse().Payload(result).Write(w)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	link, err := s.svc.ShareLink(ctx)
	if err != nil {
		s.fail(w, r, log.OpShare, err)
		return
	}
	NewJSONResponse().Payload(shareResponse{URL: link}).Write(w)
}
