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

// HoldingRepository provides data access methods for the holdings table.
// Every query is scoped to a single user.
type HoldingRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db, now: time.Now}
}

// InsertHolding stores a new holding and returns it with its assigned ID and creation time.
func (r *HoldingRepository) InsertHolding(ctx context.Context, h model.NewHolding) (model.Holding, error) {
	holding := model.Holding{
		ID:        uuid.New().String(),
		UserID:    h.UserID,
		Ticker:    h.Ticker,
		Quantity:  h.Quantity,
		BuyPrice:  h.BuyPrice,
		CreatedAt: r.now().UTC(),
	}

	query := `
		INSERT INTO holdings (id, user_id, ticker, quantity, buy_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		holding.ID,
		holding.UserID,
		holding.Ticker,
		holding.Quantity,
		holding.BuyPrice,
		holding.CreatedAt.UnixNano(),
	)
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to insert holding: %w", err)
	}

	return holding, nil
}

// ListHoldings returns all holdings of a user, newest first.
// Returns an empty slice if the user has no holdings.
func (r *HoldingRepository) ListHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	query := `
		SELECT id, user_id, ticker, quantity, buy_price, created_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holdings table results: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings table: %w", err)
	}

	return holdings, nil
}

// GetHolding returns one holding owned by userID.
// Returns ErrHoldingNotFound when it does not exist or belongs to another user.
func (r *HoldingRepository) GetHolding(ctx context.Context, userID, id string) (model.Holding, error) {
	query := `
		SELECT id, user_id, ticker, quantity, buy_price, created_at
		FROM holdings
		WHERE user_id = ? AND id = ?
	`
	h, err := scanHolding(r.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to query holding: %w", err)
	}
	return h, nil
}

// DeleteHolding removes a holding owned by userID.
// Returns ErrHoldingNotFound when no row was deleted.
func (r *HoldingRepository) DeleteHolding(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM holdings WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted rows: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrHoldingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (model.Holding, error) {
	var h model.Holding
	var createdAt int64
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Ticker,
		&h.Quantity,
		&h.BuyPrice,
		&createdAt,
	)
	if err != nil {
		return model.Holding{}, err
	}
	h.CreatedAt = fromUnixNano(createdAt)
	return h, nil
}
