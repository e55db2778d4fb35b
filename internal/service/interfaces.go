// Package service holds the business operations behind the HTTP handlers:
// account lifecycle, the synchronous transfer engine, and transaction log
// reads.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/statement"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
)

// TxRunner runs a function inside a database transaction. Satisfied by
// persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// AccountService defines account lifecycle operations
type AccountService interface {
	// OpenAccount creates a customer's first account: active, in the default
	// currency, seeded with the configured opening balance.
	// Returns ErrAccountAlreadyExists if the owner already holds one.
	OpenAccount(ctx context.Context, ownerID uuid.UUID) (*account.Account, error)

	// RequestAccount creates an additional-currency account that starts
	// inactive and pending admin approval
	RequestAccount(ctx context.Context, ownerID uuid.UUID, currency shared.Currency) (*account.Account, error)

	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
	ListPendingAccounts(ctx context.Context) ([]*account.Account, error)

	// ApproveAccount activates a pending account
	ApproveAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// DeactivateAccount makes the account unusable for movements
	DeactivateAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// BlockAccount freezes the account and stamps the block time
	BlockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// RequestUnlock records the customer's plea to unblock
	RequestUnlock(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// UnblockAccount restores a blocked account to active
	UnblockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TransferCommand describes a requested transfer. The destination is
// addressed by account number, the way customers reference accounts.
type TransferCommand struct {
	IdempotencyKey    string
	SourceAccountID   uuid.UUID
	DestinationNumber string
	Amount            decimal.Decimal
	Description       string
	CorrelationID     string
}

// MovementCommand describes a one-sided deposit or withdrawal
type MovementCommand struct {
	IdempotencyKey string
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	Description    string
	CorrelationID  string
}

// TransferService posts money movements atomically. Each method returns the
// posted record and whether it was a replay of a previously used
// idempotency key.
type TransferService interface {
	Transfer(ctx context.Context, cmd *TransferCommand) (*transaction.Transaction, bool, error)
	Deposit(ctx context.Context, cmd *MovementCommand) (*transaction.Transaction, bool, error)
	Withdraw(ctx context.Context, cmd *MovementCommand) (*transaction.Transaction, bool, error)
}

// TransactionService defines transaction log and statement reads, plus the
// administrative reversal
type TransactionService interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// ListByAccount returns paginated movements touching the account, newest
	// first, with the total count
	ListByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error)

	// ListByOwner returns paginated movements across all the owner's accounts
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error)

	// Reverse marks a POSTED record REVERSED. Balances are not touched; a
	// compensating movement is a separate business action.
	Reverse(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// GetStatement reads the archived statement projection for an account
	GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*statement.Entry, int64, error)

	// GetStatementByTimeRange reads archived entries posted inside the window
	GetStatementByTimeRange(ctx context.Context, startTime, endTime time.Time, page, perPage int) ([]*statement.Entry, error)
}
