package backend

import (
	"fmt"

	"casaconti/internal/config"
	"casaconti/internal/core"
)

// Type selects where the ledger is persisted.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds everything needed to build the store and the statement
// exporter.
type Config struct {
	Type         Type
	SQLiteDBPath string

	// Spreadsheet export. Empty SpreadsheetID keeps exports in memory.
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsJSON string
	CredentialsFile string

	Household core.Household
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:            t,
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		SheetPrefix:     appConfig.GoogleSheetPrefix,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
		Household:       HouseholdFromConfig(appConfig),
	}, nil
}

// HouseholdFromConfig returns the two configured people.
func HouseholdFromConfig(c *config.Config) core.Household {
	return core.Household{
		A: core.Person{Name: c.PersonAName, Email: c.PersonAEmail},
		B: core.Person{Name: c.PersonBName, Email: c.PersonBEmail},
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.SpreadsheetID != "" && c.CredentialsJSON == "" && c.CredentialsFile == "" {
		return fmt.Errorf("service account credentials are required for spreadsheet export")
	}
	return nil
}
