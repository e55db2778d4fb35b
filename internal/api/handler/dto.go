package handler

import "time"

// CreateAccountRequest opens or requests an account. With no currency the
// owner gets their first, default-currency account (active, seeded); with a
// currency it is an additional account pending admin approval.
type CreateAccountRequest struct {
	OwnerID  string `json:"owner_id" binding:"required,uuid"`
	Currency string `json:"currency,omitempty" binding:"omitempty,len=3"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                string `json:"id"`
	AccountNumber     string `json:"account_number"`
	OwnerID           string `json:"owner_id"`
	Currency          string `json:"currency"`
	Balance           string `json:"balance"`
	IsActive          bool   `json:"is_active"`
	IsPending         bool   `json:"is_pending"`
	IsUnlockRequest   bool   `json:"is_unlock_request"`
	BlockedAt         string `json:"blocked_at,omitempty"`
	UnlockRequestedAt string `json:"unlock_requested_at,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// CreateTransferRequest represents a request to move money between accounts.
// The idempotency key normally travels in the X-Idempotency-Key header; the
// body field is a fallback.
type CreateTransferRequest struct {
	SourceAccountID   string `json:"source_account_id" binding:"required,uuid"`
	DestinationNumber string `json:"destination_number" binding:"required,len=16"`
	Amount            string `json:"amount" binding:"required"`
	Description       string `json:"description,omitempty"`
	IdempotencyKey    string `json:"idempotency_key,omitempty"`
}

// CreateMovementRequest represents a deposit or withdrawal on one account
type CreateMovementRequest struct {
	Amount         string `json:"amount" binding:"required"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransactionResponse represents a transaction log record in API responses
type TransactionResponse struct {
	ID                   string `json:"id"`
	IdempotencyKey       string `json:"idempotency_key"`
	AccountID            string `json:"account_id"`
	DestinationAccountID string `json:"destination_account_id,omitempty"`
	Type                 string `json:"type"`
	Amount               string `json:"amount"`
	ExchangeRate         string `json:"exchange_rate,omitempty"`
	Status               string `json:"status"`
	Description          string `json:"description,omitempty"`
	Replayed             bool   `json:"replayed,omitempty"`
	CreatedAt            string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// TimeRangeParams bounds a statement query to a posted-at window
type TimeRangeParams struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}
