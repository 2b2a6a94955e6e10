package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nadersamir/approval-flow/internal/application/port"
	"github.com/nadersamir/approval-flow/internal/domain/approval"
	"github.com/nadersamir/approval-flow/internal/domain/entity"
)

// UserRepository implements port.UserRepository on sqlite
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, department, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Department,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

// FindFirstByRole returns the earliest-registered active user holding the
// given role. Used to resolve role-addressed notifications.
func (r *UserRepository) FindFirstByRole(ctx context.Context, role entity.Role) (*entity.User, error) {
	return r.getBy(ctx, "role = ? AND is_active = 1 ORDER BY created_at ASC", role)
}

// SetLastLogin records a successful login time
func (r *UserRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, t, id)
	if err != nil {
		r.logger.Error("Failed to set last login", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set last login: %w", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, role, department, is_active, last_login, created_at
		FROM users
		WHERE %s
		LIMIT 1
	`, where)

	var user entity.User
	var rawRole string
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&rawRole,
		&user.Department,
		&user.IsActive,
		&lastLogin,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", approval.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Normalize here so legacy role values stored before the enum existed
	// (e.g. "admin") come back canonical.
	user.Role = entity.ParseRoleOrDefault(rawRole)

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
