package sheets

import (
	"context"

	"casaconti/internal/core"
)

// Ports for outbound adapters.
type (
	// StatementWriter replaces the exported copy of a month's statement.
	StatementWriter interface {
		WriteStatement(ctx context.Context, stmt core.Statement) (ref string, err error)
	}
)
