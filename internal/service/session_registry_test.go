package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestSessionRegistry tests that controllers follow the auth lifecycle.
//
// WHY: Each session gets its own portfolio state, and it must be torn down
// at sign-out so a later session never sees stale state.
func TestSessionRegistry(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	auth := testutil.NewTestAuthService(t, db)
	user := testutil.NewUser().WithPassword("correct-horse-battery").Build(t, db)
	testutil.CreateHolding(t, db, user.ID, "AAPL", 1, 100)

	prices := testutil.NewFakeQuoteClient(map[string]float64{"AAPL": 150})
	registry := testutil.NewTestSessionRegistry(t, db, auth, prices, testutil.NewFakeRateClient(testutil.TestRates()))

	signIn := func() string {
		t.Helper()
		res, err := auth.SignIn(ctx, request.SignInRequest{Email: user.Email, Password: "correct-horse-battery"})
		if err != nil {
			t.Fatalf("SignIn() returned unexpected error: %v", err)
		}
		return res.Token
	}

	token := signIn()
	_, session, err := auth.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() returned unexpected error: %v", err)
	}

	c, ok := registry.Lookup(session.ID)
	if !ok {
		t.Fatal("Expected a controller to be created at sign-in")
	}
	c.Wait()

	view := c.Snapshot("USD")
	if view.State != model.StateLoaded || view.RateState != model.RatesLoaded {
		t.Errorf("Expected controller started at sign-in, got state=%s rates=%s", view.State, view.RateState)
	}

	t.Run("get returns the same controller", func(t *testing.T) {
		got, err := registry.Get(ctx, session.ID, user)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		if got != c {
			t.Error("Expected the session's existing controller")
		}
	})

	t.Run("sessions are independent", func(t *testing.T) {
		other := signIn()
		_, otherSession, _ := auth.CurrentUser(ctx, other)
		oc, ok := registry.Lookup(otherSession.ID)
		if !ok || oc == c {
			t.Error("Expected a distinct controller for the second session")
		}
		oc.Wait()
		if registry.Len() != 2 {
			t.Errorf("Expected 2 live sessions, got %d", registry.Len())
		}

		if n := registry.RefreshAll(ctx); n != 2 {
			t.Errorf("Expected 2 refreshes, got %d", n)
		}

		if err := auth.SignOut(ctx, other); err != nil {
			t.Fatalf("SignOut() returned unexpected error: %v", err)
		}
		if !oc.Closed() {
			t.Error("Expected controller closed at sign-out")
		}
	})

	t.Run("sign-out removes the session", func(t *testing.T) {
		if err := auth.SignOut(ctx, token); err != nil {
			t.Fatalf("SignOut() returned unexpected error: %v", err)
		}
		if _, ok := registry.Lookup(session.ID); ok {
			t.Error("Expected controller removed at sign-out")
		}
		if registry.Len() != 0 {
			t.Errorf("Expected no live sessions, got %d", registry.Len())
		}
	})

	t.Run("signed-out session is not reopened", func(t *testing.T) {
		// A request authenticated just before sign-out can still reach Get.
		got, err := registry.Get(ctx, session.ID, user)
		if !errors.Is(err, apperrors.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
		if got != nil {
			t.Error("Expected no controller for a signed-out session")
		}
		if registry.Len() != 0 {
			t.Errorf("Expected no live sessions, got %d", registry.Len())
		}
	})

	t.Run("get lazily creates controllers for unknown sessions", func(t *testing.T) {
		c, err := registry.Get(ctx, "restored-session", user)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		c.Wait()
		if got := c.Snapshot("USD").State; got != model.StateLoaded {
			t.Errorf("Expected lazily created controller to load, got %s", got)
		}
		if c.User().ID != user.ID {
			t.Errorf("Expected controller for user %s, got %s", user.ID, c.User().ID)
		}
	})

	t.Run("session bound to another user is refused", func(t *testing.T) {
		stranger := testutil.CreateUser(t, db)
		_, err := registry.Get(ctx, "restored-session", stranger)
		if !errors.Is(err, apperrors.ErrNotAuthenticated) {
			t.Errorf("Expected ErrNotAuthenticated, got %v", err)
		}
	})
}
