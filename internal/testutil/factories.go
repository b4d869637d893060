package testutil

import (
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DefaultPassword is the password UserBuilder hashes unless WithPassword is used.
const DefaultPassword = "correct-horse-battery"

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().Build(t, db)
//	user := testutil.NewUser().WithEmail("ada@example.com").WithPassword("s3cret-pass").Build(t, db)
type UserBuilder struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:        MakeID(),
		Email:     MakeEmail("user"),
		Password:  DefaultPassword,
		CreatedAt: time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.ID = id
	return b
}

// WithEmail sets a custom email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.Email = email
	return b
}

// WithPassword sets the plain-text password that will be hashed.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.Password = password
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(b.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	_, err = db.Exec(
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		b.ID, b.Email, string(hash), b.CreatedAt.UnixNano(),
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:           b.ID,
		Email:        b.Email,
		PasswordHash: string(hash),
		CreatedAt:    b.CreatedAt,
	}
}

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	h := testutil.NewHolding(user.ID).WithTicker("AAPL").WithQuantity(10).WithBuyPrice(150).Build(t, db)
type HoldingBuilder struct {
	ID        string
	UserID    string
	Ticker    string
	Quantity  float64
	BuyPrice  float64
	CreatedAt time.Time
}

// NewHolding creates a HoldingBuilder for userID with sensible defaults.
func NewHolding(userID string) *HoldingBuilder {
	return &HoldingBuilder{
		ID:        MakeID(),
		UserID:    userID,
		Ticker:    MakeTicker(),
		Quantity:  10,
		BuyPrice:  100,
		CreatedAt: time.Now().UTC(),
	}
}

// WithID sets a custom ID.
func (b *HoldingBuilder) WithID(id string) *HoldingBuilder {
	b.ID = id
	return b
}

// WithTicker sets the ticker.
func (b *HoldingBuilder) WithTicker(ticker string) *HoldingBuilder {
	b.Ticker = ticker
	return b
}

// WithQuantity sets the quantity.
func (b *HoldingBuilder) WithQuantity(q float64) *HoldingBuilder {
	b.Quantity = q
	return b
}

// WithBuyPrice sets the USD buy price.
func (b *HoldingBuilder) WithBuyPrice(p float64) *HoldingBuilder {
	b.BuyPrice = p
	return b
}

// WithCreatedAt sets the creation time, which determines list order.
func (b *HoldingBuilder) WithCreatedAt(ts time.Time) *HoldingBuilder {
	b.CreatedAt = ts.UTC()
	return b
}

// Build creates the holding in the database and returns it.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	query := `
		INSERT INTO holdings (id, user_id, ticker, quantity, buy_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, b.ID, b.UserID, b.Ticker, b.Quantity, b.BuyPrice, b.CreatedAt.UnixNano())
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}

	return model.Holding{
		ID:        b.ID,
		UserID:    b.UserID,
		Ticker:    b.Ticker,
		Quantity:  b.Quantity,
		BuyPrice:  b.BuyPrice,
		CreatedAt: b.CreatedAt,
	}
}

// Convenience functions

// CreateUser creates a user with default values.
func CreateUser(t *testing.T, db *sql.DB) model.User {
	t.Helper()
	return NewUser().Build(t, db)
}

// CreateHolding creates a holding for userID with the given ticker, quantity and USD buy price.
func CreateHolding(t *testing.T, db *sql.DB, userID, ticker string, quantity, buyPrice float64) model.Holding {
	t.Helper()
	return NewHolding(userID).WithTicker(ticker).WithQuantity(quantity).WithBuyPrice(buyPrice).Build(t, db)
}
