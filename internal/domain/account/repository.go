package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Repository defines account persistence operations. ApplyDelta is the only
// sanctioned mutation path for balances.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Account, error)
	GetByOwnerAndCurrency(ctx context.Context, ownerID uuid.UUID, currency shared.Currency) (*Account, error)
	ListPending(ctx context.Context) ([]*Account, error)

	// Update persists flag changes using optimistic locking on version
	Update(ctx context.Context, account *Account) error

	// ApplyDelta atomically adds delta (positive or negative) to the balance.
	// The update is guarded so the balance can never go negative; a violation
	// returns ErrInsufficientFunds.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// LockForTransfer acquires a row lock for the duration of the enclosing
	// transaction and returns the current account state
	LockForTransfer(ctx context.Context, id uuid.UUID) (*Account, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID     uuid.UUID
	AccountNumber string
}

func (e ErrAccountNotFound) Error() string {
	if e.AccountNumber != "" {
		return "account not found: number " + e.AccountNumber
	}
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target carries no identity
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil && t.AccountNumber == "" {
		return true
	}
	return e.AccountID == t.AccountID && e.AccountNumber == t.AccountNumber
}

// ErrAccountInactive indicates the account cannot take part in a money
// movement (deactivated, blocked, or still pending approval)
type ErrAccountInactive struct {
	AccountID uuid.UUID
}

func (e ErrAccountInactive) Error() string {
	return "account not active: " + e.AccountID.String()
}

// Is matches any ErrAccountInactive when the target carries no identity
func (e ErrAccountInactive) Is(target error) bool {
	t, ok := target.(ErrAccountInactive)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrConcurrentModification indicates optimistic lock failure; the caller
// made no durable change and may safely retry
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountAlreadyExists indicates the owner already holds an account in
// the requested currency
type ErrAccountAlreadyExists struct {
	OwnerID  uuid.UUID
	Currency shared.Currency
}

func (e ErrAccountAlreadyExists) Error() string {
	return "owner " + e.OwnerID.String() + " already has an account in " + string(e.Currency)
}
