package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/forecast"
)

const maxBodyBytes = 1 << 20

// RangeParams holds an inclusive date range from query parameters. Both
// bounds are zero when neither was given.
type RangeParams struct {
	Start time.Time
	End   time.Time
}

// ParseRangeParams reads start and end (YYYY-MM-DD). They must be given
// together.
func ParseRangeParams(query url.Values) (RangeParams, error) {
	startRaw := strings.TrimSpace(query.Get("start"))
	endRaw := strings.TrimSpace(query.Get("end"))
	if startRaw == "" && endRaw == "" {
		return RangeParams{}, nil
	}
	if startRaw == "" || endRaw == "" {
		return RangeParams{}, errors.New("start and end must be given together")
	}

	start, err := core.ParseDate(startRaw)
	if err != nil {
		return RangeParams{}, fmt.Errorf("start: %w", err)
	}
	end, err := core.ParseDate(endRaw)
	if err != nil {
		return RangeParams{}, fmt.Errorf("end: %w", err)
	}
	if end.Before(start.Time) {
		return RangeParams{}, errors.New("end is before start")
	}
	return RangeParams{Start: start.Time, End: end.Time}, nil
}

// ParseMonths reads the forecast window. Zero means the configured default.
func ParseMonths(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("months"))
	if raw == "" {
		return 0, nil
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months < 1 || months > forecast.MaxWindowMonths {
		return 0, fmt.Errorf("%w: months must be between 1 and %d", forecast.ErrInvalidWindow, forecast.MaxWindowMonths)
	}
	return months, nil
}

// ParsePeriod reads the list period preset.
func ParsePeriod(query url.Values) (forecast.Period, error) {
	p, err := forecast.ParsePeriod(strings.TrimSpace(query.Get("period")))
	if err != nil {
		return "", fmt.Errorf("%w: use all, current or last", err)
	}
	return p, nil
}

// decodeJSONBody decodes a single JSON value from r into v, rejecting
// unknown fields and trailing data.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
