package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"casaconti/internal/core"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// parseYearMonth extracts year and month from query parameters. Absent
// values default to the month containing now; malformed ones are rejected.
func parseYearMonth(r *http.Request, now time.Time) (core.Period, error) {
	p := core.NewPeriod(now)
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: month %q", core.ErrInvalidPeriod, v)
		}
		p.Month = m
	}
	return p, p.Validate()
}

// bodyPeriod defaults a zero period sent in a request body to now.
func bodyPeriod(year, month int, now time.Time) (core.Period, error) {
	if year == 0 && month == 0 {
		return core.NewPeriod(now), nil
	}
	p := core.Period{Year: year, Month: month}
	return p, p.Validate()
}

// pathID reads a numeric mux variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", core.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", core.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", core.ErrInvalidArgument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", core.ErrInvalidArgument)
	}
	return nil
}

// parsePayer accepts "a"/"A"/"b"/"B".
func parsePayer(s string) (core.Payer, error) {
	p := core.Payer(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Validate()
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
