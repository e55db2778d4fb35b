package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/statement"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
)

func TestTransactionService_ListByAccount(t *testing.T) {
	ctx := context.Background()
	txns := &MockTransactionRepository{}
	statements := &MockStatementRepository{}
	svc := NewTransactionService(newTestLogger(), txns, statements)

	accountID := uuid.New()
	records := []*transaction.Transaction{
		{ID: uuid.New(), AccountID: accountID, Type: shared.TransactionTypeDeposit, Amount: decimal.RequireFromString("50.00")},
	}

	// Page 3 at 20 per page translates to offset 40
	txns.On("ListByAccount", ctx, accountID, 20, 40).Return(records, nil).Once()
	txns.On("CountByAccount", ctx, accountID).Return(int64(41), nil).Once()

	got, total, err := svc.ListByAccount(ctx, accountID, 3, 20)
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, int64(41), total)
	txns.AssertExpectations(t)
}

func TestTransactionService_Reverse(t *testing.T) {
	ctx := context.Background()
	txns := &MockTransactionRepository{}
	statements := &MockStatementRepository{}
	svc := NewTransactionService(newTestLogger(), txns, statements)

	t.Run("success", func(t *testing.T) {
		reversed := &transaction.Transaction{
			ID:     uuid.New(),
			Status: shared.TransactionStatusReversed,
		}
		txns.On("MarkReversed", ctx, reversed.ID).Return(reversed, nil).Once()

		got, err := svc.Reverse(ctx, reversed.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.TransactionStatusReversed, got.Status)
	})

	t.Run("already reversed", func(t *testing.T) {
		id := uuid.New()
		txns.On("MarkReversed", ctx, id).
			Return(nil, transaction.ErrInvalidStatusTransition{From: shared.TransactionStatusReversed, To: shared.TransactionStatusReversed}).Once()

		_, err := svc.Reverse(ctx, id)
		var transitionErr transaction.ErrInvalidStatusTransition
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestTransactionService_GetStatement(t *testing.T) {
	ctx := context.Background()
	txns := &MockTransactionRepository{}
	statements := &MockStatementRepository{}
	svc := NewTransactionService(newTestLogger(), txns, statements)

	accountID := uuid.New()
	entries := []*statement.Entry{
		{
			TransactionID: uuid.New(),
			AccountID:     accountID,
			Direction:     statement.DirectionDebit,
			Amount:        "100.00",
			Currency:      shared.CurrencyUSD,
		},
	}

	statements.On("GetByAccountID", ctx, accountID, 10, 0).Return(entries, nil).Once()
	statements.On("CountByAccountID", ctx, accountID).Return(int64(1), nil).Once()

	got, total, err := svc.GetStatement(ctx, accountID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, int64(1), total)
	statements.AssertExpectations(t)
}

func TestTransactionService_GetStatementByTimeRange(t *testing.T) {
	ctx := context.Background()
	txns := &MockTransactionRepository{}
	statements := &MockStatementRepository{}
	svc := NewTransactionService(newTestLogger(), txns, statements)

	end := time.Now()
	start := end.Add(-24 * time.Hour)
	entries := []*statement.Entry{}

	statements.On("GetByTimeRange", ctx, start, end, 50, 50).Return(entries, nil).Once()

	got, err := svc.GetStatementByTimeRange(ctx, start, end, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	statements.AssertExpectations(t)
}
