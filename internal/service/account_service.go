package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/config"
	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo     account.Repository
	openingBalance  decimal.Decimal
	defaultCurrency shared.Currency
	logger          *slog.Logger
}

// NewAccountService creates a new account service. The opening balance and
// default currency come from configuration and are validated here so a bad
// value fails at startup rather than on the first signup.
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, cfg *config.LedgerConfig) (*AccountServiceImpl, error) {
	openingBalance, err := decimal.NewFromString(cfg.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid opening balance %q: %w", cfg.OpeningBalance, err)
	}
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("opening balance %q cannot be negative", cfg.OpeningBalance)
	}
	defaultCurrency, err := shared.ParseCurrency(cfg.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid default currency %q: %w", cfg.DefaultCurrency, err)
	}

	return &AccountServiceImpl{
		accountRepo:     accountRepo,
		openingBalance:  openingBalance,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}, nil
}

// OpenAccount creates the owner's first account in the default currency,
// active and seeded with the opening balance
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, ownerID uuid.UUID) (*account.Account, error) {
	existing, err := s.accountRepo.GetByOwnerAndCurrency(ctx, ownerID, s.defaultCurrency)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrAccountAlreadyExists{OwnerID: ownerID, Currency: s.defaultCurrency}
	}

	acc, err := account.NewAccount(ownerID, s.defaultCurrency, s.openingBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Opened account",
		"account_id", acc.ID.String(),
		"account_number", acc.AccountNumber,
		"owner_id", ownerID.String(),
		"currency", string(acc.Currency),
	)
	return acc, nil
}

// RequestAccount creates an additional-currency account pending approval
func (s *AccountServiceImpl) RequestAccount(ctx context.Context, ownerID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	existing, err := s.accountRepo.GetByOwnerAndCurrency(ctx, ownerID, currency)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrAccountAlreadyExists{OwnerID: ownerID, Currency: currency}
	}

	acc := account.NewPendingAccount(ownerID, currency)
	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Requested account pending approval",
		"account_id", acc.ID.String(),
		"owner_id", ownerID.String(),
		"currency", string(currency),
	)
	return acc, nil
}

// GetAccount retrieves an account by its ID
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its 16-digit number
func (s *AccountServiceImpl) GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	return s.accountRepo.GetByNumber(ctx, accountNumber)
}

// ListAccounts retrieves all accounts owned by a customer
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	return s.accountRepo.GetByOwner(ctx, ownerID)
}

// ListPendingAccounts retrieves accounts awaiting admin approval
func (s *AccountServiceImpl) ListPendingAccounts(ctx context.Context) ([]*account.Account, error) {
	return s.accountRepo.ListPending(ctx)
}

// ApproveAccount activates a pending account
func (s *AccountServiceImpl) ApproveAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.mutate(ctx, id, "approved", func(acc *account.Account) { acc.Activate() })
}

// DeactivateAccount makes the account unusable for movements
func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.mutate(ctx, id, "deactivated", func(acc *account.Account) { acc.Deactivate() })
}

// BlockAccount freezes the account
func (s *AccountServiceImpl) BlockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.mutate(ctx, id, "blocked", func(acc *account.Account) { acc.Block() })
}

// RequestUnlock records the customer's request to unblock the account
func (s *AccountServiceImpl) RequestUnlock(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.mutate(ctx, id, "unlock requested", func(acc *account.Account) { acc.RequestUnlock() })
}

// UnblockAccount restores a blocked account to active
func (s *AccountServiceImpl) UnblockAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.mutate(ctx, id, "unblocked", func(acc *account.Account) { acc.Unblock() })
}

// mutate loads the account, applies the lifecycle change, and persists it
// under optimistic locking. Idempotent changes leave the version untouched
// and skip the write.
func (s *AccountServiceImpl) mutate(ctx context.Context, id uuid.UUID, action string, apply func(*account.Account)) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := acc.Version
	apply(acc)
	if acc.Version == before {
		return acc, nil
	}

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account "+action, "account_id", id.String())
	return acc, nil
}
