package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Repository manages the append-only transaction log
type Repository interface {
	// Append stores a new record. The idempotency key is unique across the
	// log; a duplicate returns ErrDuplicateIdempotencyKey.
	Append(ctx context.Context, txn *Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// ListByAccount returns records where the account is source or
	// destination, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)

	// ListByOwner joins through account ownership, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Transaction, error)

	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// MarkReversed transitions POSTED -> REVERSED; any other starting status
	// returns ErrInvalidStatusTransition
	MarkReversed(ctx context.Context, id uuid.UUID) (*Transaction, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing transaction record
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries no identity
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateIdempotencyKey indicates the key was already used. The caller
// either retried a completed request or reused a key; the original record
// should be surfaced instead of re-applying the movement.
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "idempotency key already used: " + e.Key
}

// Is matches any ErrDuplicateIdempotencyKey when the target carries no key
func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdempotencyKey)
	if !ok {
		return false
	}
	if t.Key == "" {
		return true
	}
	return e.Key == t.Key
}

// ErrInvalidStatusTransition indicates an illegal status change
type ErrInvalidStatusTransition struct {
	From shared.TransactionStatus
	To   shared.TransactionStatus
}

func (e ErrInvalidStatusTransition) Error() string {
	return "invalid transaction status transition: " + string(e.From) + " -> " + string(e.To)
}

// Is matches any ErrInvalidStatusTransition when the target is empty
func (e ErrInvalidStatusTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidStatusTransition)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}
