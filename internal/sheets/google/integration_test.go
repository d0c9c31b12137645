//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"casaconti/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteStatement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	accountJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	accountFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if accountJSON == "" && accountFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	exporter, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		Prefix:          "Integration",
		CredentialsJSON: accountJSON,
		CredentialsFile: accountFile,
		Household:       core.Household{A: core.Person{Name: "A"}, B: core.Person{Name: "B"}},
	})
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}

	stmt := core.Statement{
		Period: core.NewPeriod(time.Now()),
		Rows: []core.StatementRow{core.IndividualRow{
			Label:        "Integration Test Expense",
			Frequency:    core.Monthly,
			AmountKind:   core.FixedAmount,
			Distribution: core.EqualSplit{},
			Total:        d("12.34"),
			Shares:       core.Shares{A: d("6.17"), B: d("6.17")},
		}},
		Balance: core.Balance{
			Owed:    core.Shares{A: d("6.17"), B: d("6.17")},
			Pending: core.Shares{A: d("6.17"), B: d("6.17")},
		},
	}

	for i := 0; i < 2; i++ {
		ref, err := exporter.WriteStatement(ctx, stmt)
		if err != nil {
			t.Fatalf("export %d failed: %v", i+1, err)
		}
		t.Logf("Exported statement to %s", ref)
	}
}
