// Package postgres provides PostgreSQL implementations of the domain
// repositories. Accounts, the transaction log, and the outbox live in the
// same database so one pgx transaction can cover a whole money movement.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/platform/persistence"
)

const accountColumns = `id, account_number, owner_id, currency, balance, is_active, is_pending, is_unlock_request, blocked_at, unlock_requested_at, version, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A duplicate account number or owner+currency
// pair surfaces as a database constraint error.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.AccountNumber,
		acc.OwnerID,
		acc.Currency,
		acc.Balance,
		acc.IsActive,
		acc.IsPending,
		acc.IsUnlockRequest,
		acc.BlockedAt,
		acc.UnlockRequestedAt,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByNumber retrieves an account by its 16-digit account number
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
		}
		r.logger.Error("Failed to get account by number", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return acc, nil
}

// GetByOwner retrieves all accounts belonging to an owner, oldest first
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to get accounts by owner", "owner_id", ownerID.String(), "error", err)
		return nil, fmt.Errorf("failed to get accounts by owner: %w", err)
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

// GetByOwnerAndCurrency retrieves the owner's account in the given currency.
// Returns nil, nil when the owner has no account in that currency.
func (r *AccountRepository) GetByOwnerAndCurrency(ctx context.Context, ownerID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND currency = $2
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, ownerID, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by owner and currency", "owner_id", ownerID.String(), "currency", string(currency), "error", err)
		return nil, fmt.Errorf("failed to get account by owner and currency: %w", err)
	}

	return acc, nil
}

// ListPending retrieves accounts awaiting admin approval, newest first
func (r *AccountRepository) ListPending(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_pending = TRUE
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list pending accounts", "error", err)
		return nil, fmt.Errorf("failed to list pending accounts: %w", err)
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

// Update persists lifecycle flag changes with optimistic locking. Balance is
// deliberately excluded; ApplyDelta is the only balance mutation path.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET is_active = $1, is_pending = $2, is_unlock_request = $3, blocked_at = $4, unlock_requested_at = $5, version = $6, updated_at = $7
		WHERE id = $8 AND version = $9
	`

	result, err := r.querier.Exec(ctx, query,
		acc.IsActive,
		acc.IsPending,
		acc.IsUnlockRequest,
		acc.BlockedAt,
		acc.UnlockRequestedAt,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// ApplyDelta atomically adds delta to the balance. The WHERE guard keeps the
// balance from going negative inside the database itself, so even a caller
// that skipped validation cannot overdraw an account.
func (r *AccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
	`

	result, err := r.querier.Exec(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to apply balance delta", "id", id.String(), "error", err)
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}

	if result.RowsAffected() == 0 {
		// The row exists when the caller holds its lock, so a zero-row
		// update means the guard rejected the new balance
		return account.ErrInsufficientFunds
	}

	return nil
}

// LockForTransfer obtains a row lock on the account and returns its current
// state. Must be called within a transaction; the lock is held until commit
// or rollback.
func (r *AccountRepository) LockForTransfer(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for transfer", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for transfer: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.AccountNumber,
		&acc.OwnerID,
		&acc.Currency,
		&acc.Balance,
		&acc.IsActive,
		&acc.IsPending,
		&acc.IsUnlockRequest,
		&acc.BlockedAt,
		&acc.UnlockRequestedAt,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) collectAccounts(rows pgx.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan account row", "error", err)
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over account rows", "error", err)
		return nil, fmt.Errorf("error iterating over account rows: %w", err)
	}

	return accounts, nil
}
