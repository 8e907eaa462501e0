package handlers

import (
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/services"
	"purse-circle/internal/pkg/pagination"
	"purse-circle/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PurseHandler handles purse endpoints
type PurseHandler struct {
	purseService *services.PurseService
}

// NewPurseHandler creates a new purse handler
func NewPurseHandler(purseService *services.PurseService) *PurseHandler {
	return &PurseHandler{purseService: purseService}
}

// JoinRequest represents join request body
type JoinRequest struct {
	Position int `json:"position"`
}

// BeneficiaryRequest names the beneficiary a donation or approval is for
type BeneficiaryRequest struct {
	Beneficiary string `json:"beneficiary"`
}

// Create creates a purse with the caller seated at start_position
// @Summary Create purse
// @Tags Purses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePurseInput true "Purse terms"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /purses [post]
func (h *PurseHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePurseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	view, err := h.purseService.Create(c.Context(), callerAddress(c), &input)
	if err != nil {
		return respondError(c, err, "Failed to create purse")
	}
	return response.Created(c, "Purse created successfully", view)
}

// List lists purses
// @Summary List purses
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Router /purses [get]
func (h *PurseHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	views, total, err := h.purseService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err, "Failed to list purses")
	}
	return response.Success(c, "Purses retrieved successfully", pagination.NewResponse(views, params, total))
}

// Mine lists the purses the caller belongs to
// @Summary List my purses
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/purses [get]
func (h *PurseHandler) Mine(c *fiber.Ctx) error {
	views, err := h.purseService.ListByMember(c.Context(), callerAddress(c))
	if err != nil {
		return respondError(c, err, "Failed to list purses")
	}
	return response.Success(c, "Purses retrieved successfully", views)
}

// Get returns one purse
// @Summary Get purse
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /purses/{id} [get]
func (h *PurseHandler) Get(c *fiber.Ctx) error {
	view, err := h.purseService.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get purse")
	}
	return response.Success(c, "Purse retrieved successfully", view)
}

// Join seats the caller
// @Summary Join purse
// @Tags Purses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Param body body JoinRequest true "Position"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /purses/{id}/join [post]
func (h *PurseHandler) Join(c *fiber.Ctx) error {
	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	id := c.Params("id")
	if err := h.purseService.Join(c.Context(), id, callerAddress(c), req.Position); err != nil {
		return respondError(c, err, "Failed to join purse")
	}
	return h.respondView(c, id, "Joined purse successfully")
}

// Members returns the roster
// @Summary Purse members
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Router /purses/{id}/members [get]
func (h *PurseHandler) Members(c *fiber.Ctx) error {
	members, err := h.purseService.Members(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get members")
	}
	return response.Success(c, "Members retrieved successfully", members)
}

// Round returns the open round
// @Summary Current round
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /purses/{id}/round [get]
func (h *PurseHandler) Round(c *fiber.Ctx) error {
	round, err := h.purseService.Round(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get round")
	}
	return response.Success(c, "Round retrieved successfully", round)
}

// Eligibility reports whether the open round can be claimed
// @Summary Claim eligibility
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Router /purses/{id}/eligibility [get]
func (h *PurseHandler) Eligibility(c *fiber.Ctx) error {
	round, err := h.purseService.Round(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get eligibility")
	}
	return response.Success(c, "Eligibility retrieved successfully", round.Eligibility)
}

// Donate deposits the caller's contribution for the beneficiary
// @Summary Deposit donation
// @Tags Purses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Param body body BeneficiaryRequest true "Beneficiary"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /purses/{id}/donations [post]
func (h *PurseHandler) Donate(c *fiber.Ctx) error {
	var req BeneficiaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	id := c.Params("id")
	if err := h.purseService.Deposit(c.Context(), id, callerAddress(c), domain.Address(req.Beneficiary)); err != nil {
		return respondError(c, err, "Failed to deposit donation")
	}
	return h.respondView(c, id, "Donation deposited successfully")
}

// Approve votes to let the beneficiary claim an incomplete round
// @Summary Approve early claim
// @Tags Purses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Param body body BeneficiaryRequest true "Beneficiary"
// @Success 200 {object} response.Response
// @Router /purses/{id}/approvals [post]
func (h *PurseHandler) Approve(c *fiber.Ctx) error {
	var req BeneficiaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	id := c.Params("id")
	if err := h.purseService.Approve(c.Context(), id, callerAddress(c), domain.Address(req.Beneficiary)); err != nil {
		return respondError(c, err, "Failed to record approval")
	}
	return h.respondView(c, id, "Approval recorded successfully")
}

// Claim pays the open round out to the caller
// @Summary Claim donations
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /purses/{id}/claim [post]
func (h *PurseHandler) Claim(c *fiber.Ctx) error {
	amount, err := h.purseService.Claim(c.Context(), c.Params("id"), callerAddress(c))
	if err != nil {
		return respondError(c, err, "Failed to claim donations")
	}
	return response.Success(c, "Donations claimed successfully", fiber.Map{"amount": amount})
}

// WithdrawHeld pays out the caller's funds from lapsed rounds
// @Summary Withdraw held donations
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Router /purses/{id}/held/withdraw [post]
func (h *PurseHandler) WithdrawHeld(c *fiber.Ctx) error {
	amount, err := h.purseService.WithdrawHeld(c.Context(), c.Params("id"), callerAddress(c))
	if err != nil {
		return respondError(c, err, "Failed to withdraw held donations")
	}
	return response.Success(c, "Held donations withdrawn", fiber.Map{"amount": amount})
}

// History returns the closed rounds
// @Summary Round history
// @Tags Purses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Success 200 {object} response.Response
// @Router /purses/{id}/history [get]
func (h *PurseHandler) History(c *fiber.Ctx) error {
	history, err := h.purseService.History(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to get history")
	}
	return response.Success(c, "History retrieved successfully", history)
}

// MissedFor lists members who skipped donating to address
// @Summary Missed donations for a beneficiary
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Param address path string true "Beneficiary"
// @Success 200 {object} response.Response
// @Router /purses/{id}/audit/for/{address} [get]
func (h *PurseHandler) MissedFor(c *fiber.Ctx) error {
	view, err := h.purseService.MissedFor(c.Params("id"), domain.Address(c.Params("address")))
	if err != nil {
		return respondError(c, err, "Failed to audit purse")
	}
	return response.Success(c, "Audit retrieved successfully", view)
}

// MissedBy lists beneficiaries address skipped
// @Summary Missed donations by a donor
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purse ID"
// @Param address path string true "Donor"
// @Success 200 {object} response.Response
// @Router /purses/{id}/audit/by/{address} [get]
func (h *PurseHandler) MissedBy(c *fiber.Ctx) error {
	view, err := h.purseService.MissedBy(c.Params("id"), domain.Address(c.Params("address")))
	if err != nil {
		return respondError(c, err, "Failed to audit purse")
	}
	return response.Success(c, "Audit retrieved successfully", view)
}

func (h *PurseHandler) respondView(c *fiber.Ctx, id, message string) error {
	view, err := h.purseService.Get(id)
	if err != nil {
		return respondError(c, err, message)
	}
	return response.Success(c, message, view)
}

// callerAddress returns the address set by the auth middleware
func callerAddress(c *fiber.Ctx) domain.Address {
	addr, _ := c.Locals("address").(string)
	return domain.Address(addr)
}
