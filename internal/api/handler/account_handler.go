package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create opens the owner's first account, or requests an additional-currency
// account when a currency is supplied
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		RespondBadRequest(c, "Invalid owner ID")
		return
	}

	var acc *account.Account
	if req.Currency == "" {
		acc, err = h.accountService.OpenAccount(c.Request.Context(), ownerID)
	} else {
		var currency shared.Currency
		currency, err = shared.ParseCurrency(req.Currency)
		if err == nil {
			acc, err = h.accountService.RequestAccount(c.Request.Context(), ownerID, currency)
		}
	}
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetByNumber retrieves an account by its 16-digit account number
func (h *AccountHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if len(number) != 16 {
		RespondBadRequest(c, "Invalid account number")
		return
	}

	acc, err := h.accountService.GetAccountByNumber(c.Request.Context(), number)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListByOwner retrieves all accounts held by an owner
func (h *AccountHandler) ListByOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing owner_id")
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), ownerID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// ListPending retrieves accounts awaiting admin approval
func (h *AccountHandler) ListPending(c *gin.Context) {
	accounts, err := h.accountService.ListPendingAccounts(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// Approve activates a pending account
func (h *AccountHandler) Approve(c *gin.Context) {
	h.lifecycle(c, h.accountService.ApproveAccount)
}

// Deactivate makes an account unusable for movements
func (h *AccountHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.accountService.DeactivateAccount)
}

// Block freezes an account
func (h *AccountHandler) Block(c *gin.Context) {
	h.lifecycle(c, h.accountService.BlockAccount)
}

// RequestUnlock records the customer's request to unblock
func (h *AccountHandler) RequestUnlock(c *gin.Context) {
	h.lifecycle(c, h.accountService.RequestUnlock)
}

// Unblock restores a blocked account to active
func (h *AccountHandler) Unblock(c *gin.Context) {
	h.lifecycle(c, h.accountService.UnblockAccount)
}

func (h *AccountHandler) lifecycle(c *gin.Context, action func(ctx context.Context, id uuid.UUID) (*account.Account, error)) {
	id, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	acc, err := action(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

func parseIDParam(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:              acc.ID.String(),
		AccountNumber:   acc.AccountNumber,
		OwnerID:         acc.OwnerID.String(),
		Currency:        string(acc.Currency),
		Balance:         acc.Balance.StringFixed(2),
		IsActive:        acc.IsActive,
		IsPending:       acc.IsPending,
		IsUnlockRequest: acc.IsUnlockRequest,
		CreatedAt:       acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.BlockedAt != nil {
		resp.BlockedAt = acc.BlockedAt.Format(time.RFC3339)
	}
	if acc.UnlockRequestedAt != nil {
		resp.UnlockRequestedAt = acc.UnlockRequestedAt.Format(time.RFC3339)
	}
	return resp
}
