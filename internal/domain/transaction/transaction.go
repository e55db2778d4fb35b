package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrMissingIdempotency = errors.New("idempotency key is required")
	ErrMissingDestination = errors.New("transfer requires a destination account")
)

// Transaction is an append-only record of a money movement. Once posted, the
// amounts and account references are immutable; only the status may later
// move to REVERSED.
type Transaction struct {
	ID                   uuid.UUID                `json:"id"`
	IdempotencyKey       string                   `json:"idempotency_key"`
	AccountID            uuid.UUID                `json:"account_id"`
	DestinationAccountID *uuid.UUID               `json:"destination_account_id,omitempty"`
	Type                 shared.TransactionType   `json:"type"`
	Amount               decimal.Decimal          `json:"amount"` // Source-currency amount, 2 fraction digits
	ExchangeRate         *decimal.Decimal         `json:"exchange_rate,omitempty"` // 6 fraction digits, cross-currency only
	Status               shared.TransactionStatus `json:"status"`
	Description          string                   `json:"description,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
}

// NewTransfer builds a posted transfer record. The amount is the debit in
// the source currency; rate is nil for same-currency transfers.
func NewTransfer(idempotencyKey string, sourceID, destID uuid.UUID, amount decimal.Decimal, rate *decimal.Decimal, description string) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotency
	}
	if destID == uuid.Nil {
		return nil, ErrMissingDestination
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:                   uuid.New(),
		IdempotencyKey:       idempotencyKey,
		AccountID:            sourceID,
		DestinationAccountID: &destID,
		Type:                 shared.TransactionTypeTransfer,
		Amount:               amount.Round(2),
		ExchangeRate:         rate,
		Status:               shared.TransactionStatusPosted,
		Description:          description,
		CreatedAt:            time.Now(),
	}, nil
}

// NewDeposit builds a posted one-sided credit record
func NewDeposit(idempotencyKey string, accountID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, error) {
	return newOneSided(shared.TransactionTypeDeposit, idempotencyKey, accountID, amount, description)
}

// NewWithdrawal builds a posted one-sided debit record
func NewWithdrawal(idempotencyKey string, accountID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, error) {
	return newOneSided(shared.TransactionTypeWithdraw, idempotencyKey, accountID, amount, description)
}

func newOneSided(txType shared.TransactionType, idempotencyKey string, accountID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotency
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:             uuid.New(),
		IdempotencyKey: idempotencyKey,
		AccountID:      accountID,
		Type:           txType,
		Amount:         amount.Round(2),
		Status:         shared.TransactionStatusPosted,
		Description:    description,
		CreatedAt:      time.Now(),
	}, nil
}

// Reverse transitions the record to REVERSED. Legal only from POSTED.
func (t *Transaction) Reverse() error {
	if t.Status != shared.TransactionStatusPosted {
		return ErrInvalidStatusTransition{From: t.Status, To: shared.TransactionStatusReversed}
	}
	t.Status = shared.TransactionStatusReversed
	return nil
}
