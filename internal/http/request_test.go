package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"casaconti/internal/core"
)

func TestParseYearMonth(t *testing.T) {
	now := time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   string
		want    core.Period
		wantErr bool
	}{
		{"defaults to now", "", core.Period{Year: 2025, Month: 7}, false},
		{"explicit", "?year=2024&month=2", core.Period{Year: 2024, Month: 2}, false},
		{"month only", "?month=12", core.Period{Year: 2025, Month: 12}, false},
		{"trims spaces", "?year=%202023%20&month=1", core.Period{Year: 2023, Month: 1}, false},
		{"month out of range", "?month=0", core.Period{}, true},
		{"not a number", "?year=twenty", core.Period{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/statement"+tt.query, nil)
			got, err := parseYearMonth(r, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseYearMonth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidArgument) {
					t.Errorf("error %v is not InvalidArgument", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseYearMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBodyPeriod(t *testing.T) {
	now := time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)
	if p, err := bodyPeriod(0, 0, now); err != nil || p != (core.Period{Year: 2025, Month: 7}) {
		t.Errorf("bodyPeriod(0, 0) = %v, %v", p, err)
	}
	if _, err := bodyPeriod(2025, 0, now); err == nil {
		t.Error("bodyPeriod(2025, 0) accepted a zero month")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", core.ErrEmptyLabel), http.StatusBadRequest},
		{fmt.Errorf("group 3: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("member: %w", core.ErrConflict), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/api/groups", nil), errors.New("sql: connection refused"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decode[errorBody](t, rr); body.Error != "internal error" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rent\x00\x07 \tflat  "); got != "Rent \tflat" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
