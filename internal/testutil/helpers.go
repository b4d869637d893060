package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// NewTestSessionKey generates a fresh fernet key for signing session tokens.
func NewTestSessionKey(t *testing.T) *fernet.Key {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate session key: %v", err)
	}
	return &key
}

// NewTestAuthService builds an AuthService over db with the cheapest bcrypt cost.
func NewTestAuthService(t *testing.T, db *sql.DB) *service.AuthService {
	t.Helper()

	return service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		NewTestSessionKey(t),
		service.AuthOptions{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost},
		zap.NewNop(),
	)
}

// NewTestController builds a controller for user backed by db and the given fakes.
// The controller is closed and drained when the test ends.
func NewTestController(t *testing.T, db *sql.DB, user model.User, prices *FakeQuoteClient, rates *FakeRateClient) *service.PortfolioController {
	t.Helper()

	return NewTestControllerWithStore(t, repository.NewHoldingRepository(db), user, prices, rates)
}

// NewTestControllerWithStore builds a controller over an arbitrary HoldingStore.
func NewTestControllerWithStore(t *testing.T, store service.HoldingStore, user model.User, prices *FakeQuoteClient, rates *FakeRateClient) *service.PortfolioController {
	t.Helper()

	c := service.NewPortfolioController(
		user,
		store,
		prices,
		rates,
		service.ControllerOptions{FetchTimeout: 5 * time.Second, PriceConcurrency: 4},
		zap.NewNop(),
	)
	t.Cleanup(func() {
		c.Close()
		c.Wait()
	})
	return c
}

// NewTestSessionRegistry wires a registry to auth that builds controllers over db with the given fakes.
func NewTestSessionRegistry(t *testing.T, db *sql.DB, auth *service.AuthService, prices *FakeQuoteClient, rates *FakeRateClient) *service.SessionRegistry {
	t.Helper()

	holdings := repository.NewHoldingRepository(db)
	registry := service.NewSessionRegistry(auth, func(user model.User) *service.PortfolioController {
		return service.NewPortfolioController(user, holdings, prices, rates,
			service.ControllerOptions{FetchTimeout: 5 * time.Second, PriceConcurrency: 4}, zap.NewNop())
	}, zap.NewNop())
	t.Cleanup(registry.Close)
	return registry
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"quote_cache": false, "scheduled_refresh": false})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a valid, unique ticker symbol for testing.
// It is six characters, within the ticker length limit.
//
// Example usage:
//
//	ticker := testutil.MakeTicker()
//	// Returns: "TX4F2A"
func MakeTicker() string {
	return "T" + randomAlphanumeric(5)
}

// MakeEmail generates a unique lowercase email address for testing.
//
// Example usage:
//
//	email := testutil.MakeEmail("ada")
//	// Returns: "ada-k3j9x1@example.com"
func MakeEmail(base string) string {
	if base == "" {
		base = "user"
	}
	return strings.ToLower(base + "-" + randomAlphanumeric(6) + "@example.com")
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 {
	return &v
}

// TestRates is the rate set used across scenarios: 1 USD = 83 INR = 0.92 EUR = 1300 KRW.
func TestRates() model.RateSet {
	return model.RateSet{"USD": 1, "INR": 83, "EUR": 0.92, "KRW": 1300}
}
