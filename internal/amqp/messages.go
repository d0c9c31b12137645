package amqp

import (
	"encoding/json"
	"time"

	"casaconti/internal/core"

	"github.com/google/uuid"
)

// StatementExportMessage asks the worker to export the statement of one
// month again. It carries only the period; the worker rebuilds the
// statement from the database.
type StatementExportMessage struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatementExportMessage(p core.Period, reason string) *StatementExportMessage {
	return &StatementExportMessage{
		ID:        uuid.NewString(),
		Year:      p.Year,
		Month:     p.Month,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Period returns the month the message refers to.
func (m *StatementExportMessage) Period() core.Period {
	return core.Period{Year: m.Year, Month: m.Month}
}

// ToJSON converts the message to JSON bytes
func (m *StatementExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementExportMessageFromJSON decodes a message and rejects periods
// that cannot be exported.
func StatementExportMessageFromJSON(data []byte) (*StatementExportMessage, error) {
	var msg StatementExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Period().Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
