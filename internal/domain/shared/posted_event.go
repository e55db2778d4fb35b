package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostedTransactionEvent is published after a transaction commits. It carries
// everything the statement archiver needs to project both account sides
// without reading the relational store.
type PostedTransactionEvent struct {
	TransactionID   uuid.UUID        `json:"transaction_id"`
	IdempotencyKey  string           `json:"idempotency_key"`
	Type            TransactionType  `json:"type"`
	SourceAccountID uuid.UUID        `json:"source_account_id"`
	SourceNumber    string           `json:"source_number"`
	SourceCurrency  Currency         `json:"source_currency"`
	DestAccountID   *uuid.UUID       `json:"dest_account_id,omitempty"`
	DestNumber      string           `json:"dest_number,omitempty"`
	DestCurrency    Currency         `json:"dest_currency,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	DestAmount      decimal.Decimal  `json:"dest_amount"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
	Description     string           `json:"description,omitempty"`
	CorrelationID   string           `json:"correlation_id,omitempty"`
	PostedAt        time.Time        `json:"posted_at"`
}
