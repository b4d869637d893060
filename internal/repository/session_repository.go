package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// SessionRepository provides data access methods for the sessions table.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository with the provided database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// InsertSession opens a session for userID that expires after ttl.
func (r *SessionRepository) InsertSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error) {
	now := r.now().UTC()
	s := model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		s.ID, s.UserID, s.CreatedAt.UnixNano(), s.ExpiresAt.UnixNano(),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return s, nil
}

// GetSession returns the session with the given ID, expired or not.
// Returns ErrSessionNotFound if it was never created or has been revoked.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (model.Session, error) {
	var s model.Session
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.UserID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to query session: %w", err)
	}
	s.CreatedAt = fromUnixNano(createdAt)
	s.ExpiresAt = fromUnixNano(expiresAt)
	return s, nil
}

// DeleteSession revokes a session. Returns ErrSessionNotFound if nothing was deleted.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired before now and
// returns the IDs it removed.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) ([]string, error) {
	cutoff := r.now().UTC().UnixNano()

	rows, err := r.db.QueryContext(ctx, "SELECT id FROM sessions WHERE expires_at <= ?", cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", err)
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating expired sessions: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return ids, nil
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return ids, nil
}
