package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// UserRepository provides data access methods for the users table.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// InsertUser stores a new account. Emails are compared case-insensitively.
// Returns ErrUserExists if the email is already registered.
func (r *UserRepository) InsertUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	user := model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.User{}, apperrors.ErrUserExists
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetUserByEmail returns the account registered with email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, "email = ?", strings.ToLower(email))
}

// GetUserByID returns the account with the given ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (model.User, error) {
	//#nosec G202 -- Safe: where clause is one of two constants above
	query := "SELECT id, email, password_hash, created_at FROM users WHERE " + where

	var u model.User
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt = fromUnixNano(createdAt)
	return u, nil
}
