package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/outbox"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
	"github.com/andesbank-core-ledger/internal/exchange"
)

// TransferServiceImpl posts money movements. Balance changes, the log
// append, and the outbox write happen in one database transaction, so a
// movement is either fully visible or never happened.
type TransferServiceImpl struct {
	db              TxRunner
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	outboxRepo      outbox.Repository
	converter       *exchange.Converter
	logger          *slog.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(
	logger *slog.Logger,
	db TxRunner,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	outboxRepo outbox.Repository,
	converter *exchange.Converter,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		converter:       converter,
		logger:          logger,
	}
}

// Transfer moves money between two accounts, converting across currencies
// when they differ. The caller-supplied idempotency key makes retries safe:
// a reused key returns the original record instead of moving money twice.
func (s *TransferServiceImpl) Transfer(ctx context.Context, cmd *TransferCommand) (*transaction.Transaction, bool, error) {
	if cmd.IdempotencyKey == "" {
		return nil, false, transaction.ErrMissingIdempotency
	}
	amount := cmd.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, false, transaction.ErrInvalidAmount
	}

	if existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKey); err != nil {
		return nil, false, err
	} else if existing != nil {
		s.logger.Info("Replaying transfer for reused idempotency key",
			"idempotency_key", cmd.IdempotencyKey,
			"transaction_id", existing.ID.String(),
		)
		return existing, true, nil
	}

	// Resolve the destination number before taking any locks
	dest, err := s.accountRepo.GetByNumber(ctx, cmd.DestinationNumber)
	if err != nil {
		return nil, false, err
	}

	var posted *transaction.Transaction
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		source, destination, err := lockPair(ctx, accounts, cmd.SourceAccountID, dest.ID)
		if err != nil {
			return err
		}

		if err := source.CanTransact(amount); err != nil {
			return err
		}
		if !destination.IsActive {
			return account.ErrAccountInactive{AccountID: destination.ID}
		}

		converted, rate, err := s.converter.Convert(amount, source.Currency, destination.Currency)
		if err != nil {
			return err
		}

		// A self-transfer nets to zero; skip the deltas but still post the
		// record so the attempt is auditable
		if source.ID != destination.ID {
			if err := accounts.ApplyDelta(ctx, source.ID, amount.Neg()); err != nil {
				return err
			}
			if err := accounts.ApplyDelta(ctx, destination.ID, converted); err != nil {
				return err
			}
		}

		description := cmd.Description
		if description == "" {
			description = "Transfer to account " + destination.AccountNumber
		}

		txn, err := transaction.NewTransfer(cmd.IdempotencyKey, source.ID, destination.ID, amount, rate, description)
		if err != nil {
			return err
		}
		if err := s.transactionRepo.WithTx(tx).Append(ctx, txn); err != nil {
			return err
		}

		event := &shared.PostedTransactionEvent{
			TransactionID:   txn.ID,
			IdempotencyKey:  txn.IdempotencyKey,
			Type:            txn.Type,
			SourceAccountID: source.ID,
			SourceNumber:    source.AccountNumber,
			SourceCurrency:  source.Currency,
			DestAccountID:   &destination.ID,
			DestNumber:      destination.AccountNumber,
			DestCurrency:    destination.Currency,
			Amount:          txn.Amount,
			DestAmount:      converted,
			ExchangeRate:    rate,
			Description:     txn.Description,
			CorrelationID:   cmd.CorrelationID,
			PostedAt:        txn.CreatedAt,
		}
		if err := s.createOutboxMessage(ctx, tx, event); err != nil {
			return err
		}

		posted = txn
		return nil
	})
	if err != nil {
		// Two racing requests with the same key both pass the pre-check; the
		// unique index lets only one insert through. Surface the winner.
		if replay, replayErr := s.resolveDuplicate(ctx, cmd.IdempotencyKey, err); replay != nil || replayErr != nil {
			return replay, replay != nil, replayErr
		}
		return nil, false, err
	}

	s.logger.Info("Transfer posted",
		"transaction_id", posted.ID.String(),
		"source_account_id", cmd.SourceAccountID.String(),
		"destination_number", cmd.DestinationNumber,
		"amount", amount.String(),
	)
	return posted, false, nil
}

// Deposit credits an account with new money
func (s *TransferServiceImpl) Deposit(ctx context.Context, cmd *MovementCommand) (*transaction.Transaction, bool, error) {
	return s.postOneSided(ctx, shared.TransactionTypeDeposit, cmd)
}

// Withdraw debits an account, failing on insufficient funds
func (s *TransferServiceImpl) Withdraw(ctx context.Context, cmd *MovementCommand) (*transaction.Transaction, bool, error) {
	return s.postOneSided(ctx, shared.TransactionTypeWithdraw, cmd)
}

func (s *TransferServiceImpl) postOneSided(ctx context.Context, txType shared.TransactionType, cmd *MovementCommand) (*transaction.Transaction, bool, error) {
	if cmd.IdempotencyKey == "" {
		return nil, false, transaction.ErrMissingIdempotency
	}
	amount := cmd.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, false, transaction.ErrInvalidAmount
	}

	if existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKey); err != nil {
		return nil, false, err
	} else if existing != nil {
		s.logger.Info("Replaying movement for reused idempotency key",
			"idempotency_key", cmd.IdempotencyKey,
			"transaction_id", existing.ID.String(),
		)
		return existing, true, nil
	}

	var posted *transaction.Transaction
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		acc, err := accounts.LockForTransfer(ctx, cmd.AccountID)
		if err != nil {
			return err
		}

		var delta decimal.Decimal
		var txn *transaction.Transaction
		switch txType {
		case shared.TransactionTypeDeposit:
			if !acc.IsActive {
				return account.ErrAccountInactive{AccountID: acc.ID}
			}
			delta = amount
			txn, err = transaction.NewDeposit(cmd.IdempotencyKey, acc.ID, amount, cmd.Description)
		default:
			if err := acc.CanTransact(amount); err != nil {
				return err
			}
			delta = amount.Neg()
			txn, err = transaction.NewWithdrawal(cmd.IdempotencyKey, acc.ID, amount, cmd.Description)
		}
		if err != nil {
			return err
		}

		if err := accounts.ApplyDelta(ctx, acc.ID, delta); err != nil {
			return err
		}
		if err := s.transactionRepo.WithTx(tx).Append(ctx, txn); err != nil {
			return err
		}

		event := &shared.PostedTransactionEvent{
			TransactionID:   txn.ID,
			IdempotencyKey:  txn.IdempotencyKey,
			Type:            txn.Type,
			SourceAccountID: acc.ID,
			SourceNumber:    acc.AccountNumber,
			SourceCurrency:  acc.Currency,
			Amount:          txn.Amount,
			DestAmount:      txn.Amount,
			Description:     txn.Description,
			CorrelationID:   cmd.CorrelationID,
			PostedAt:        txn.CreatedAt,
		}
		if err := s.createOutboxMessage(ctx, tx, event); err != nil {
			return err
		}

		posted = txn
		return nil
	})
	if err != nil {
		if replay, replayErr := s.resolveDuplicate(ctx, cmd.IdempotencyKey, err); replay != nil || replayErr != nil {
			return replay, replay != nil, replayErr
		}
		return nil, false, err
	}

	s.logger.Info("Movement posted",
		"transaction_id", posted.ID.String(),
		"account_id", cmd.AccountID.String(),
		"type", string(txType),
		"amount", amount.String(),
	)
	return posted, false, nil
}

func (s *TransferServiceImpl) createOutboxMessage(ctx context.Context, tx pgx.Tx, event *shared.PostedTransactionEvent) error {
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, msg)
}

// resolveDuplicate turns a unique-key violation into the original record.
// Returns nil, nil when err is unrelated to idempotency.
func (s *TransferServiceImpl) resolveDuplicate(ctx context.Context, key string, err error) (*transaction.Transaction, error) {
	var dup transaction.ErrDuplicateIdempotencyKey
	if !errors.As(err, &dup) {
		return nil, nil
	}

	existing, getErr := s.transactionRepo.GetByIdempotencyKey(ctx, key)
	if getErr != nil {
		return nil, getErr
	}
	if existing == nil {
		// The winner's transaction has not committed yet; report the
		// conflict and let the caller retry the read
		return nil, err
	}
	return existing, nil
}

// lockPair locks both accounts in ascending ID order. Consistent ordering
// across all transfers rules out deadlocks between concurrent opposite
// transfers; a self-transfer takes a single lock.
func lockPair(ctx context.Context, repo account.Repository, sourceID, destID uuid.UUID) (*account.Account, *account.Account, error) {
	if sourceID == destID {
		acc, err := repo.LockForTransfer(ctx, sourceID)
		if err != nil {
			return nil, nil, err
		}
		return acc, acc, nil
	}

	firstID, secondID := sourceID, destID
	if bytes.Compare(destID[:], sourceID[:]) < 0 {
		firstID, secondID = destID, sourceID
	}

	first, err := repo.LockForTransfer(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := repo.LockForTransfer(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if firstID == sourceID {
		return first, second, nil
	}
	return second, first, nil
}
