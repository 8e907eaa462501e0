package handlers

import (
	"purse-circle/internal/core/services"
	"purse-circle/internal/pkg/pagination"
	"purse-circle/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LedgerHandler handles balance endpoints
type LedgerHandler struct {
	ledgerService *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// Balance returns the caller's balance
// @Summary Get balance
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param token query string false "Token symbol"
// @Success 200 {object} response.Response
// @Router /ledger/balance [get]
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.ledgerService.Balance(c.Context(), callerAddress(c), c.Query("token"))
	if err != nil {
		return respondError(c, err, "Failed to get balance")
	}
	return response.Success(c, "Balance retrieved successfully", balance)
}

// Entries lists the caller's transfers
// @Summary List ledger entries
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param token query string false "Token symbol"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Router /ledger/entries [get]
func (h *LedgerHandler) Entries(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	entries, total, err := h.ledgerService.Entries(c.Context(), callerAddress(c), c.Query("token"), params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err, "Failed to list entries")
	}
	return response.Success(c, "Entries retrieved successfully", pagination.NewResponse(entries, params, total))
}

// Credit tops up an account (admin only)
// @Summary Credit account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreditInput true "Credit"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/ledger/credit [post]
func (h *LedgerHandler) Credit(c *fiber.Ctx) error {
	var input services.CreditInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	balance, err := h.ledgerService.Credit(c.Context(), &input)
	if err != nil {
		return respondError(c, err, "Failed to credit account")
	}
	return response.Success(c, "Account credited successfully", balance)
}
