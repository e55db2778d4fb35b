package account

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidBalance    = errors.New("balance cannot be negative")
)

// Account represents a bank account. The balance is always expressed in the
// account's own currency and never goes negative.
type Account struct {
	ID                uuid.UUID       `json:"id"`
	AccountNumber     string          `json:"account_number"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	Currency          shared.Currency `json:"currency"`
	Balance           decimal.Decimal `json:"balance"`
	IsActive          bool            `json:"is_active"`
	IsPending         bool            `json:"is_pending"`
	IsUnlockRequest   bool            `json:"is_unlock_request"`
	BlockedAt         *time.Time      `json:"blocked_at,omitempty"`
	UnlockRequestedAt *time.Time      `json:"unlock_requested_at,omitempty"`
	Version           int             `json:"version"` // For optimistic locking
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewAccount creates an active account with the given opening balance. Used
// for a customer's first (default-currency) account.
func NewAccount(ownerID uuid.UUID, currency shared.Currency, openingBalance decimal.Decimal) (*Account, error) {
	if openingBalance.IsNegative() {
		return nil, ErrInvalidBalance
	}

	now := time.Now()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: GenerateAccountNumber(),
		OwnerID:       ownerID,
		Currency:      currency,
		Balance:       openingBalance.Round(2),
		IsActive:      true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewPendingAccount creates an additional-currency account awaiting admin
// activation. It starts inactive with a zero balance.
func NewPendingAccount(ownerID uuid.UUID, currency shared.Currency) *Account {
	now := time.Now()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: GenerateAccountNumber(),
		OwnerID:       ownerID,
		Currency:      currency,
		Balance:       decimal.Zero,
		IsActive:      false,
		IsPending:     true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanTransact reports whether the account can fund an outgoing movement of
// the given amount.
func (a *Account) CanTransact(amount decimal.Decimal) error {
	if !a.IsActive {
		return ErrAccountInactive{AccountID: a.ID}
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Activate marks the account active and clears the pending-approval flag.
// Activating an already-active account is a no-op.
func (a *Account) Activate() {
	if a.IsActive && !a.IsPending {
		return
	}
	a.IsActive = true
	a.IsPending = false
	a.touch()
}

// Deactivate marks the account inactive. Idempotent.
func (a *Account) Deactivate() {
	if !a.IsActive {
		return
	}
	a.IsActive = false
	a.touch()
}

// Block deactivates the account and stamps the block time. Idempotent.
func (a *Account) Block() {
	if a.BlockedAt != nil {
		return
	}
	now := time.Now()
	a.IsActive = false
	a.BlockedAt = &now
	a.touch()
}

// RequestUnlock records a customer's request to unblock the account. It is a
// no-op on accounts that are not blocked or have already requested one.
func (a *Account) RequestUnlock() {
	if a.BlockedAt == nil || a.IsUnlockRequest {
		return
	}
	now := time.Now()
	a.IsUnlockRequest = true
	a.UnlockRequestedAt = &now
	a.touch()
}

// Unblock restores the account to active and clears all block state.
// Idempotent.
func (a *Account) Unblock() {
	if a.BlockedAt == nil && a.IsActive {
		return
	}
	a.IsActive = true
	a.BlockedAt = nil
	a.IsUnlockRequest = false
	a.UnlockRequestedAt = nil
	a.touch()
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now()
	a.Version++
}

// GenerateAccountNumber produces a 16-digit account number: the last ten
// digits of the unix-millisecond clock followed by six random digits.
// Global uniqueness is enforced by the database constraint.
func GenerateAccountNumber() string {
	millis := time.Now().UnixMilli()
	prefix := fmt.Sprintf("%010d", millis%1e10)

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		n = big.NewInt(millis % 1000000)
	}
	return prefix + fmt.Sprintf("%06d", n.Int64())
}
