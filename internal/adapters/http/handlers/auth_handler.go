package handlers

import (
	"errors"
	"strings"

	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/services"
	"purse-circle/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Register handles account registration
// @Summary Register new account
// @Description Register a ledger address with a password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Address) == "" {
		return response.BadRequest(c, "Address is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Address:  strings.TrimSpace(req.Address),
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrAccountAlreadyExists):
			return response.Conflict(c, "Address already registered")
		default:
			return response.InternalServerError(c, "Failed to register account")
		}
	}

	return response.Created(c, "Account registered successfully", fiber.Map{
		"access_token": result.AccessToken,
		"account":      result.Account,
	})
}

// Login handles account login
// @Summary Login
// @Description Authenticate an account and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Address == "" {
		return response.BadRequest(c, "Address is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Address:  strings.TrimSpace(req.Address),
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid address or password")
		case errors.Is(err, domain.ErrAccountInactive):
			return response.Forbidden(c, "Account is inactive")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"account":      result.Account,
	})
}

// Me returns the current account info
// @Summary Get current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	// Get account ID from context (set by auth middleware)
	accountID, ok := c.Locals("accountID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	account, err := h.authService.GetAccountByID(c.Context(), accountID)
	if err != nil {
		return response.NotFound(c, "Account not found")
	}

	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"account": account.ToResponse(),
	})
}
