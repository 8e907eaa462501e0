package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/config"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"
	"purse-circle/internal/pkg/jwt"
	"purse-circle/internal/pkg/password"

	"gorm.io/gorm"
)

// maxAddressLength matches the accounts.address column
const maxAddressLength = 120

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo repositories.AccountRepository
	cfg         *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(accountRepo repositories.AccountRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		cfg:         cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Address  string `json:"address" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginInput represents login input
type LoginInput struct {
	Address  string `json:"address" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Account     *models.AccountResponse `json:"account"`
	AccessToken string                  `json:"access_token"`
}

// Register registers a new account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	address := strings.TrimSpace(input.Address)

	// 1. Validate input
	if address == "" || len(address) > maxAddressLength {
		return nil, fmt.Errorf("%w: address must be 1..%d characters", domain.ErrInvalidInput, maxAddressLength)
	}
	if purse.IsCustodyAddress(domain.Address(address)) {
		return nil, fmt.Errorf("%w: address is reserved", domain.ErrInvalidInput)
	}
	if !password.ValidatePassword(input.Password) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, password.MinLength)
	}

	// 2. Check if address already registered
	exists, err := s.accountRepo.ExistsByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAccountAlreadyExists
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create account
	account := &models.Account{
		Address:  address,
		Password: hashedPassword,
		Role:     string(domain.RoleUser),
		IsActive: true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	// 5. Generate token
	token, err := s.generateToken(account)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Account registered: %s", account.Address)

	return &AuthResponse{
		Account:     account.ToResponse(),
		AccessToken: token,
	}, nil
}

// Login authenticates an account
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find account by address
	account, err := s.accountRepo.GetByAddress(ctx, strings.TrimSpace(input.Address))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if account is active
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}

	// 3. Verify password
	if !password.Verify(input.Password, account.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Generate token
	token, err := s.generateToken(account)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Account logged in: %s", account.Address)

	return &AuthResponse{
		Account:     account.ToResponse(),
		AccessToken: token,
	}, nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// GetAccountByID gets an account by ID
func (s *AuthService) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// generateToken generates an access token for account
func (s *AuthService) generateToken(account *models.Account) (string, error) {
	return jwt.GenerateAccessToken(
		account.ID,
		account.Address,
		account.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
}
