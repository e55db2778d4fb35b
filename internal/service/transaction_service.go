package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/andesbank-core-ledger/internal/domain/statement"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
)

// TransactionServiceImpl implements the TransactionService interface.
// Log reads come from the relational store; statement reads come from the
// archive projection and may lag the log slightly.
type TransactionServiceImpl struct {
	transactionRepo transaction.Repository
	statementRepo   statement.Repository
	logger          *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, transactionRepo transaction.Repository, statementRepo statement.Repository) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		transactionRepo: transactionRepo,
		statementRepo:   statementRepo,
		logger:          logger,
	}
}

// GetTransaction retrieves a transaction by its ID
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, id)
}

// ListByAccount retrieves paginated movements for an account with the total
// count, newest first
func (s *TransactionServiceImpl) ListByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error) {
	offset := (page - 1) * perPage

	txns, err := s.transactionRepo.ListByAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transactionRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// ListByOwner retrieves paginated movements across all the owner's accounts
func (s *TransactionServiceImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error) {
	offset := (page - 1) * perPage
	return s.transactionRepo.ListByOwner(ctx, ownerID, perPage, offset)
}

// Reverse marks a POSTED record REVERSED. The guarded update makes repeated
// reversals fail with ErrInvalidStatusTransition rather than flip-flop.
func (s *TransactionServiceImpl) Reverse(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	txn, err := s.transactionRepo.MarkReversed(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transaction reversed", "transaction_id", id.String())
	return txn, nil
}

// GetStatement reads the archived statement projection for an account
func (s *TransactionServiceImpl) GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*statement.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.statementRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.statementRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetStatementByTimeRange reads archived entries posted inside the window
func (s *TransactionServiceImpl) GetStatementByTimeRange(ctx context.Context, startTime, endTime time.Time, page, perPage int) ([]*statement.Entry, error) {
	offset := (page - 1) * perPage
	return s.statementRepo.GetByTimeRange(ctx, startTime, endTime, perPage, offset)
}
