package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Message stores a posted-transaction event for reliable publishing. Rows
// are written in the same database transaction as the ledger append, so an
// event exists if and only if the transaction committed.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a posted-transaction event into a pending outbox row
func NewMessage(event *shared.PostedTransactionEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		AccountID:     event.SourceAccountID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

// Event extracts the posted-transaction event from the payload
func (m *Message) Event() (*shared.PostedTransactionEvent, error) {
	var event shared.PostedTransactionEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
