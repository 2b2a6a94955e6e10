package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
	"github.com/nadersamir/approval-flow/pkg/utils"
)

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// AuthService registers users and exchanges credentials for tokens.
// Everything downstream only ever sees the resolved Actor.
type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
}

type authServiceImpl struct {
	userRepo port.UserRepository
	config   AuthConfig
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, config AuthConfig, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		config:   config,
		logger:   logger,
	}
}

// Register creates a new account and issues a token so the user stays
// signed in after registering. Unknown role values fall back to employee.
func (s *authServiceImpl) Register(ctx context.Context, name, email, password, role string) (*entity.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("name, email and password are required: %w", approval.ErrValidation)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, "", fmt.Errorf("%v: %w", err, approval.ErrValidation)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("email already registered: %w", approval.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         entity.ParseRoleOrDefault(role),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", "id", user.ID, "email", user.Email, "role", user.Role)
	return user, token, nil
}

// Login verifies credentials and issues a token. Invalid email and wrong
// password produce the same error on purpose.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("email and password are required: %w", approval.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid email or password: %w", approval.ErrValidation)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", approval.ErrValidation)
	}

	now := time.Now()
	if err := s.userRepo.SetLastLogin(ctx, user.ID, now); err != nil {
		// A failed last-login write should not block the login itself.
		s.logger.Error("Failed to record last login", "id", user.ID, "error", err)
	}
	user.LastLogin = &now

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User logged in", "id", user.ID)
	return user, token, nil
}

func (s *authServiceImpl) issueToken(user *entity.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role.String(),
		"exp":  time.Now().Add(s.config.TokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
