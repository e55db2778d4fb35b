package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
	"github.com/andesbank-core-ledger/internal/platform/persistence"
)

const txnColumns = `id, idempotency_key, account_id, destination_account_id, type, amount, exchange_rate, status, description, created_at`

// Postgres unique_violation
const pgUniqueViolation = "23505"

// TransactionRepository implements the transaction.Repository interface for
// PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append stores a new transaction record. The unique index on
// idempotency_key is the race-proof duplicate detector: two concurrent
// submissions with the same key cannot both insert.
func (r *TransactionRepository) Append(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + txnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.IdempotencyKey,
		txn.AccountID,
		txn.DestinationAccountID,
		txn.Type,
		txn.Amount,
		txn.ExchangeRate,
		txn.Status,
		nullIfEmpty(txn.Description),
		txn.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.logger.Error("Failed to append transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetByIdempotencyKey retrieves a transaction by its idempotency key.
// Returns nil, nil when no record carries the key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	if key == "" {
		return nil, transaction.ErrMissingIdempotency
	}

	query := `
		SELECT ` + txnColumns + `
		FROM transactions
		WHERE idempotency_key = $1
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return txn, nil
}

// ListByAccount retrieves transactions where the account is source or
// destination, newest first
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM transactions
		WHERE account_id = $1 OR destination_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions by account", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions by account: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

// ListByOwner retrieves transactions touching any of the owner's accounts,
// newest first
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT t.id, t.idempotency_key, t.account_id, t.destination_account_id, t.type, t.amount, t.exchange_rate, t.status, t.description, t.created_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id OR a.id = t.destination_account_id
		WHERE a.owner_id = $1
		GROUP BY t.id
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions by owner", "owner_id", ownerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions by owner: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

// CountByAccount counts transactions where the account is source or
// destination
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE account_id = $1 OR destination_account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions by account", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions by account: %w", err)
	}

	return count, nil
}

// MarkReversed transitions a POSTED record to REVERSED. The status guard in
// the WHERE clause makes the transition safe under concurrency: a record
// that is not POSTED is left untouched.
func (r *TransactionRepository) MarkReversed(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.querier.Exec(ctx, query, shared.TransactionStatusReversed, id, shared.TransactionStatusPosted)
	if err != nil {
		r.logger.Error("Failed to mark transaction reversed", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to mark transaction reversed: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing record from an illegal transition
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, transaction.ErrInvalidStatusTransition{From: existing.Status, To: shared.TransactionStatusReversed}
	}

	return r.GetByID(ctx, id)
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	var description *string
	err := row.Scan(
		&txn.ID,
		&txn.IdempotencyKey,
		&txn.AccountID,
		&txn.DestinationAccountID,
		&txn.Type,
		&txn.Amount,
		&txn.ExchangeRate,
		&txn.Status,
		&description,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		txn.Description = *description
	}
	return &txn, nil
}

func (r *TransactionRepository) collectTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction row", "error", err)
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transaction rows", "error", err)
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}

	return txns, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
