package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

var testAuthConfig = AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

func TestAuthService_Register(t *testing.T) {
	var stored *entity.User
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *entity.User) error {
			stored = user
			return nil
		},
	}
	svc := NewAuthService(repo, testAuthConfig, noopLogger{})

	user, token, err := svc.Register(context.Background(), " Dana ", "Dana@Example.com", "s3cret", "manager")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "Dana", user.Name)
	assert.Equal(t, "dana@example.com", user.Email, "email is lowercased")
	assert.Equal(t, entity.RoleManager, user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
	assert.NotEmpty(t, token)
}

func TestAuthService_RegisterNormalizesLegacyRole(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, testAuthConfig, noopLogger{})

	user, _, err := svc.Register(context.Background(), "Dana", "dana@example.com", "s3cret", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHRManager, user.Role)

	user, _, err = svc.Register(context.Background(), "Eli", "eli@example.com", "s3cret", "director")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, user.Role, "unknown roles fall back to employee")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	existing := &entity.User{ID: "u1", Email: "taken@example.com"}
	repo := &mockUserRepo{
		getByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			if email == "taken@example.com" {
				return existing, nil
			}
			return nil, approval.ErrNotFound
		},
	}
	svc := NewAuthService(repo, testAuthConfig, noopLogger{})
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "", "dana@example.com", "s3cret", "")
	assert.True(t, errors.Is(err, approval.ErrValidation))

	_, _, err = svc.Register(ctx, "Dana", "not-an-email", "s3cret", "")
	assert.True(t, errors.Is(err, approval.ErrValidation))

	_, _, err = svc.Register(ctx, "Dana", "taken@example.com", "s3cret", "")
	assert.True(t, errors.Is(err, approval.ErrValidation))
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	lastLoginSet := false
	repo := &mockUserRepo{
		getByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			return &entity.User{
				ID:           "u1",
				Email:        email,
				PasswordHash: string(hash),
				Role:         entity.RoleEmployee,
				IsActive:     true,
			}, nil
		},
		setLastLoginFunc: func(ctx context.Context, id string, ts time.Time) error {
			lastLoginSet = true
			return nil
		},
	}
	svc := NewAuthService(repo, testAuthConfig, noopLogger{})

	user, token, err := svc.Login(context.Background(), "Dana@Example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, lastLoginSet)
	require.NotNil(t, user.LastLogin)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testAuthConfig.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "u1", claims["sub"])
	assert.Equal(t, "employee", claims["role"])
}

func TestAuthService_LoginBadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{
		getByEmailFunc: func(ctx context.Context, email string) (*entity.User, error) {
			if email == "dana@example.com" {
				return &entity.User{ID: "u1", Email: email, PasswordHash: string(hash)}, nil
			}
			return nil, approval.ErrNotFound
		},
	}
	svc := NewAuthService(repo, testAuthConfig, noopLogger{})
	ctx := context.Background()

	// Unknown email and wrong password produce the same error class.
	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "s3cret")
	_, _, errWrongPw := svc.Login(ctx, "dana@example.com", "wrong")

	assert.True(t, errors.Is(errUnknown, approval.ErrValidation))
	assert.True(t, errors.Is(errWrongPw, approval.ErrValidation))
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}
