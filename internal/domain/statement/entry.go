// Package statement models the per-account statement archive. Entries are a
// read-optimized projection of posted transactions: one document per account
// side, so a customer statement is a single query on account_id.
package statement

import (
	"time"

	"github.com/google/uuid"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Direction tells which side of a movement an entry records
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Entry is a single statement line for one account. Money fields are stored
// as strings to keep exact decimal values across the document store.
type Entry struct {
	TransactionID      uuid.UUID                `bson:"transaction_id" json:"transaction_id"`
	IdempotencyKey     string                   `bson:"idempotency_key" json:"idempotency_key"`
	AccountID          uuid.UUID                `bson:"account_id" json:"account_id"`
	AccountNumber      string                   `bson:"account_number" json:"account_number"`
	CounterpartyNumber string                   `bson:"counterparty_number,omitempty" json:"counterparty_number,omitempty"`
	Direction          Direction                `bson:"direction" json:"direction"`
	Type               shared.TransactionType   `bson:"type" json:"type"`
	Amount             string                   `bson:"amount" json:"amount"`
	Currency           shared.Currency          `bson:"currency" json:"currency"`
	ExchangeRate       string                   `bson:"exchange_rate,omitempty" json:"exchange_rate,omitempty"`
	Status             shared.TransactionStatus `bson:"status" json:"status"`
	Description        string                   `bson:"description,omitempty" json:"description,omitempty"`
	CorrelationID      string                   `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	PostedAt           time.Time                `bson:"posted_at" json:"posted_at"`
	ArchivedAt         time.Time                `bson:"archived_at" json:"archived_at"`
}

// EntriesFromEvent projects a posted-transaction event into statement lines.
// A transfer yields a debit line for the source account and a credit line for
// the destination; one-sided movements yield a single line.
func EntriesFromEvent(event *shared.PostedTransactionEvent) []*Entry {
	now := time.Now()

	base := Entry{
		TransactionID:  event.TransactionID,
		IdempotencyKey: event.IdempotencyKey,
		Type:           event.Type,
		Status:         shared.TransactionStatusPosted,
		Description:    event.Description,
		CorrelationID:  event.CorrelationID,
		PostedAt:       event.PostedAt,
		ArchivedAt:     now,
	}
	if event.ExchangeRate != nil {
		base.ExchangeRate = event.ExchangeRate.String()
	}

	switch event.Type {
	case shared.TransactionTypeTransfer:
		debit := base
		debit.AccountID = event.SourceAccountID
		debit.AccountNumber = event.SourceNumber
		debit.CounterpartyNumber = event.DestNumber
		debit.Direction = DirectionDebit
		debit.Amount = event.Amount.String()
		debit.Currency = event.SourceCurrency

		credit := base
		if event.DestAccountID != nil {
			credit.AccountID = *event.DestAccountID
		}
		credit.AccountNumber = event.DestNumber
		credit.CounterpartyNumber = event.SourceNumber
		credit.Direction = DirectionCredit
		credit.Amount = event.DestAmount.String()
		credit.Currency = event.DestCurrency

		return []*Entry{&debit, &credit}

	case shared.TransactionTypeDeposit:
		credit := base
		credit.AccountID = event.SourceAccountID
		credit.AccountNumber = event.SourceNumber
		credit.Direction = DirectionCredit
		credit.Amount = event.Amount.String()
		credit.Currency = event.SourceCurrency
		return []*Entry{&credit}

	default: // withdrawal
		debit := base
		debit.AccountID = event.SourceAccountID
		debit.AccountNumber = event.SourceNumber
		debit.Direction = DirectionDebit
		debit.Amount = event.Amount.String()
		debit.Currency = event.SourceCurrency
		return []*Entry{&debit}
	}
}
