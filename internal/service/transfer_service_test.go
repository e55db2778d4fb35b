package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/outbox"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
	"github.com/andesbank-core-ledger/internal/exchange"
)

func decimalEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func activeAccount(id uuid.UUID, number string, currency shared.Currency, balance string) *account.Account {
	return &account.Account{
		ID:            id,
		AccountNumber: number,
		OwnerID:       uuid.New(),
		Currency:      currency,
		Balance:       decimal.RequireFromString(balance),
		IsActive:      true,
		Version:       1,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func newTransferService(accounts *MockAccountRepository, txns *MockTransactionRepository, outboxRepo *MockOutboxRepository) *TransferServiceImpl {
	converter := exchange.NewConverter(exchange.NewFixedRateSource())
	return NewTransferService(newTestLogger(), &fakeTxRunner{}, accounts, txns, outboxRepo, converter)
}

func TestTransferService_Transfer_SameCurrency(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	sourceID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	destID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "1000.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyUSD, "0.00")

	txns.On("GetByIdempotencyKey", ctx, "key-1").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Return(source, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Return(dest, nil).Once()
	accounts.On("ApplyDelta", ctx, sourceID, decimalEq("-100")).Return(nil).Once()
	accounts.On("ApplyDelta", ctx, destID, decimalEq("100")).Return(nil).Once()
	txns.On("Append", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
	outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

	posted, replayed, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-1",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	require.NoError(t, err)
	assert.False(t, replayed)
	require.NotNil(t, posted)
	assert.Equal(t, shared.TransactionTypeTransfer, posted.Type)
	assert.True(t, posted.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.Nil(t, posted.ExchangeRate, "same-currency transfer records no rate")
	assert.Equal(t, shared.TransactionStatusPosted, posted.Status)
	assert.Equal(t, "Transfer to account 1000000000000002", posted.Description)

	accounts.AssertExpectations(t)
	txns.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
}

func TestTransferService_Transfer_CrossCurrency(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	sourceID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	destID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "500.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyPEN, "0.00")

	txns.On("GetByIdempotencyKey", ctx, "key-2").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Return(source, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Return(dest, nil).Once()
	accounts.On("ApplyDelta", ctx, sourceID, decimalEq("-100")).Return(nil).Once()
	accounts.On("ApplyDelta", ctx, destID, decimalEq("375")).Return(nil).Once()
	txns.On("Append", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()

	var capturedMessage *outbox.Message
	outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Run(func(args mock.Arguments) {
		capturedMessage = args.Get(1).(*outbox.Message)
	}).Return(nil).Once()

	posted, replayed, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-2",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	require.NoError(t, err)
	assert.False(t, replayed)
	require.NotNil(t, posted.ExchangeRate)
	assert.Equal(t, "3.750000", posted.ExchangeRate.String())

	require.NotNil(t, capturedMessage)
	event, err := capturedMessage.Event()
	require.NoError(t, err)
	assert.True(t, event.DestAmount.Equal(decimal.RequireFromString("375.00")))
	assert.Equal(t, shared.CurrencyPEN, event.DestCurrency)

	accounts.AssertExpectations(t)
	txns.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
}

func TestTransferService_Transfer_LockOrdering(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	// Destination sorts before source, so it must be locked first
	sourceID := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	destID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "1000.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyUSD, "0.00")

	var lockOrder []uuid.UUID
	recordLock := func(args mock.Arguments) {
		lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
	}

	txns.On("GetByIdempotencyKey", ctx, "key-3").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Run(recordLock).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Run(recordLock).Return(source, nil).Once()
	accounts.On("ApplyDelta", ctx, sourceID, decimalEq("-10")).Return(nil).Once()
	accounts.On("ApplyDelta", ctx, destID, decimalEq("10")).Return(nil).Once()
	txns.On("Append", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
	outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

	_, _, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-3",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("10.00"),
	})

	require.NoError(t, err)
	require.Len(t, lockOrder, 2)
	assert.Equal(t, destID, lockOrder[0], "lower account ID must be locked first")
	assert.Equal(t, sourceID, lockOrder[1])
}

func TestTransferService_Transfer_ReplaysExistingKey(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	existing := &transaction.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: "key-4",
		AccountID:      uuid.New(),
		Type:           shared.TransactionTypeTransfer,
		Amount:         decimal.RequireFromString("100.00"),
		Status:         shared.TransactionStatusPosted,
	}
	txns.On("GetByIdempotencyKey", ctx, "key-4").Return(existing, nil).Once()

	posted, replayed, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-4",
		SourceAccountID:   uuid.New(),
		DestinationNumber: "1000000000000002",
		Amount:            decimal.RequireFromString("999.00"),
	})

	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, existing, posted)
	accounts.AssertNotCalled(t, "LockForTransfer", mock.Anything, mock.Anything)
	accounts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_DuplicateRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	sourceID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	destID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "1000.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyUSD, "0.00")

	winner := &transaction.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: "key-5",
		AccountID:      sourceID,
		Type:           shared.TransactionTypeTransfer,
		Status:         shared.TransactionStatusPosted,
	}

	// The pre-check sees nothing, then the unique index rejects the insert
	txns.On("GetByIdempotencyKey", ctx, "key-5").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Return(source, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Return(dest, nil).Once()
	accounts.On("ApplyDelta", ctx, mock.Anything, mock.Anything).Return(nil).Twice()
	txns.On("Append", ctx, mock.AnythingOfType("*transaction.Transaction")).
		Return(transaction.ErrDuplicateIdempotencyKey{Key: "key-5"}).Once()
	txns.On("GetByIdempotencyKey", ctx, "key-5").Return(winner, nil).Once()

	posted, replayed, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-5",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, winner, posted)
	txns.AssertExpectations(t)
}

func TestTransferService_Transfer_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	sourceID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	destID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "50.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyUSD, "0.00")

	txns.On("GetByIdempotencyKey", ctx, "key-6").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Return(source, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Return(dest, nil).Once()

	_, _, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-6",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
	accounts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything)
	txns.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_InactiveDestination(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	sourceID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	destID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	source := activeAccount(sourceID, "1000000000000001", shared.CurrencyUSD, "1000.00")
	dest := activeAccount(destID, "1000000000000002", shared.CurrencyUSD, "0.00")
	dest.IsActive = false

	txns.On("GetByIdempotencyKey", ctx, "key-7").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()
	accounts.On("LockForTransfer", ctx, sourceID).Return(source, nil).Once()
	accounts.On("LockForTransfer", ctx, destID).Return(dest, nil).Once()

	_, _, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-7",
		SourceAccountID:   sourceID,
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	var inactiveErr account.ErrAccountInactive
	assert.ErrorAs(t, err, &inactiveErr)
	assert.Equal(t, destID, inactiveErr.AccountID)
	accounts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTransferService(&MockAccountRepository{}, &MockTransactionRepository{}, &MockOutboxRepository{})

	t.Run("missing idempotency key", func(t *testing.T) {
		_, _, err := svc.Transfer(ctx, &TransferCommand{
			SourceAccountID:   uuid.New(),
			DestinationNumber: "1000000000000002",
			Amount:            decimal.RequireFromString("100.00"),
		})
		assert.ErrorIs(t, err, transaction.ErrMissingIdempotency)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, _, err := svc.Transfer(ctx, &TransferCommand{
			IdempotencyKey:    "key",
			SourceAccountID:   uuid.New(),
			DestinationNumber: "1000000000000002",
			Amount:            decimal.Zero,
		})
		assert.ErrorIs(t, err, transaction.ErrInvalidAmount)
	})
}

func TestTransferService_Deposit(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	accID := uuid.New()
	acc := activeAccount(accID, "1000000000000001", shared.CurrencyUSD, "0.00")

	txns.On("GetByIdempotencyKey", ctx, "key-8").Return(nil, nil).Once()
	accounts.On("LockForTransfer", ctx, accID).Return(acc, nil).Once()
	accounts.On("ApplyDelta", ctx, accID, decimalEq("250")).Return(nil).Once()
	txns.On("Append", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
	outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

	posted, replayed, err := svc.Deposit(ctx, &MovementCommand{
		IdempotencyKey: "key-8",
		AccountID:      accID,
		Amount:         decimal.RequireFromString("250.00"),
	})

	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, shared.TransactionTypeDeposit, posted.Type)
	accounts.AssertExpectations(t)
}

func TestTransferService_Withdraw_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}
	svc := newTransferService(accounts, txns, outboxRepo)

	accID := uuid.New()
	acc := activeAccount(accID, "1000000000000001", shared.CurrencyUSD, "10.00")

	txns.On("GetByIdempotencyKey", ctx, "key-9").Return(nil, nil).Once()
	accounts.On("LockForTransfer", ctx, accID).Return(acc, nil).Once()

	_, _, err := svc.Withdraw(ctx, &MovementCommand{
		IdempotencyKey: "key-9",
		AccountID:      accID,
		Amount:         decimal.RequireFromString("100.00"),
	})

	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
	accounts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferService_Transfer_TxBeginFailure(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountRepository{}
	txns := &MockTransactionRepository{}
	outboxRepo := &MockOutboxRepository{}

	beginErr := errors.New("connection refused")
	converter := exchange.NewConverter(exchange.NewFixedRateSource())
	svc := NewTransferService(newTestLogger(), &fakeTxRunner{err: beginErr}, accounts, txns, outboxRepo, converter)

	dest := activeAccount(uuid.New(), "1000000000000002", shared.CurrencyUSD, "0.00")
	txns.On("GetByIdempotencyKey", ctx, "key-10").Return(nil, nil).Once()
	accounts.On("GetByNumber", ctx, dest.AccountNumber).Return(dest, nil).Once()

	_, _, err := svc.Transfer(ctx, &TransferCommand{
		IdempotencyKey:    "key-10",
		SourceAccountID:   uuid.New(),
		DestinationNumber: dest.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})

	assert.ErrorIs(t, err, beginErr)
}
