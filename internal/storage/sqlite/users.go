package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

const selectUser = `
	SELECT u.id, u.email, u.display_name, u.password_hash, u.created_at, u.updated_at, p.id, p.handle
	FROM users u
	JOIN profiles p ON p.id = u.profile_id
`

// CreateUser inserts a new user and its profile into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (id, handle) VALUES (?, ?)",
		user.Profile.ID, user.Profile.Handle,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: handle %q is taken", storage.ErrConflict, user.Profile.Handle)
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, profile_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.Profile.ID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %q is taken", storage.ErrConflict, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "u.email = ?", email)
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "u.id = ?", id)
}

// GetUserByHandle retrieves a user by profile handle, ignoring case.
func (s *SQLiteStore) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.getUser(ctx, "p.handle = ?", strings.TrimSpace(handle))
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Profile.ID,
		&user.Profile.Handle,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %v", storage.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
