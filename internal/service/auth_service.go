package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService. Registration also
// provisions the new user's wallet so every account starts with one.
type AuthServiceImpl struct {
	userRepo     ports.UserRepository
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	provisioning ports.ProvisioningService
	log          zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	provisioning ports.ProvisioningService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:     userRepo,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		provisioning: provisioning,
		log:          log,
	}
}

// Register creates a user account and provisions its wallet.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email, phone string) (*domain.User, error) {
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	if len(password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}

	hash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Phone:        phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, apperror.ErrUsernameExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	if _, err := s.provisioning.ProvisionWallet(ctx, user.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", username).
		Msg("user registered")

	return user, nil
}

// Login verifies credentials and returns a bearer token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return "", nil, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", nil, apperror.ErrInvalidCredentials()
	}

	token, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return "", nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Msg("user logged in")

	return token, user, nil
}
