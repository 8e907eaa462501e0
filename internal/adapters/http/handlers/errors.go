package handlers

import (
	"errors"
	"log"

	"purse-circle/internal/core/domain"
	"purse-circle/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// respondError maps domain errors to HTTP responses
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrPurseNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())

	case errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrNotThisMembersRound),
		errors.Is(err, domain.ErrSelfDonation),
		errors.Is(err, domain.ErrSelfApproval),
		errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrPositionTaken),
		errors.Is(err, domain.ErrPurseFull),
		errors.Is(err, domain.ErrAlreadyDonated),
		errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrCircleCompleted),
		errors.Is(err, domain.ErrDuplicateEntry):
		return response.Conflict(c, err.Error())

	case errors.Is(err, domain.ErrRoundNotComplete),
		errors.Is(err, domain.ErrTransferFailed),
		errors.Is(err, domain.ErrInsufficientBalance):
		return response.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	log.Printf("❌ %s: %v", fallback, err)
	return response.InternalServerError(c, fallback)
}
