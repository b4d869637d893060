package service

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// AuthNotifier publishes sign-in and sign-out events. AuthService implements it.
type AuthNotifier interface {
	OnAuthChange(fn func(AuthEvent)) (unsubscribe func())
}

// ControllerFactory builds the controller for a newly signed-in user.
type ControllerFactory func(user model.User) *PortfolioController

// SessionRegistry keeps one PortfolioController per signed-in session.
// Controllers are created at sign-in and torn down at sign-out.
type SessionRegistry struct {
	factory     ControllerFactory
	logger      *zap.Logger
	unsubscribe func()

	mu          sync.Mutex
	controllers map[string]*PortfolioController
	revoked     map[string]struct{}
	closed      bool
}

// NewSessionRegistry creates a registry and subscribes it to auth events.
func NewSessionRegistry(auth AuthNotifier, factory ControllerFactory, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SessionRegistry{
		factory:     factory,
		logger:      logger,
		controllers: make(map[string]*PortfolioController),
		revoked:     make(map[string]struct{}),
	}
	r.unsubscribe = auth.OnAuthChange(r.handleAuthEvent)
	return r
}

func (r *SessionRegistry) handleAuthEvent(ev AuthEvent) {
	if ev.SignedIn() {
		if _, err := r.open(context.Background(), ev.SessionID, *ev.User); err != nil {
			r.logger.Warn("failed to open portfolio session", zap.String("session_id", ev.SessionID), zap.Error(err))
		}
		return
	}
	r.revoke(ev.SessionID)
}

// Get returns the controller for sessionID, creating and starting one for
// user if the session has none yet. A signed-out session is never reopened,
// and a session bound to another user is refused.
func (r *SessionRegistry) Get(ctx context.Context, sessionID string, user model.User) (*PortfolioController, error) {
	return r.open(ctx, sessionID, user)
}

func (r *SessionRegistry) open(ctx context.Context, sessionID string, user model.User) (*PortfolioController, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, apperrors.ErrSessionClosed
	}
	if _, ok := r.revoked[sessionID]; ok {
		r.mu.Unlock()
		return nil, apperrors.ErrNotAuthenticated
	}
	if c, ok := r.controllers[sessionID]; ok {
		r.mu.Unlock()
		if c.User().ID != user.ID {
			return nil, apperrors.ErrNotAuthenticated
		}
		return c, nil
	}
	c := r.factory(user)
	r.controllers[sessionID] = c
	r.mu.Unlock()

	r.logger.Debug("portfolio session opened", zap.String("session_id", sessionID), zap.String("user_id", user.ID))
	c.Start(ctx)
	return c, nil
}

// revoke tears down sessionID and blocks it from being opened again.
func (r *SessionRegistry) revoke(sessionID string) {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.revoked[sessionID] = struct{}{}
	r.mu.Unlock()

	if ok {
		c.Close()
		r.logger.Debug("portfolio session closed", zap.String("session_id", sessionID))
	}
}

// Lookup returns the controller for sessionID without creating one.
func (r *SessionRegistry) Lookup(sessionID string) (*PortfolioController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[sessionID]
	return c, ok
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// RefreshAll refreshes prices for every live session and returns how many
// refreshes ran. Sessions with a refresh already in flight are skipped.
func (r *SessionRegistry) RefreshAll(ctx context.Context) int {
	r.mu.Lock()
	controllers := make([]*PortfolioController, 0, len(r.controllers))
	for _, c := range r.controllers {
		controllers = append(controllers, c)
	}
	r.mu.Unlock()

	var started atomic.Int32
	var g errgroup.Group
	g.SetLimit(4)
	for _, c := range controllers {
		g.Go(func() error {
			if c.RefreshPrices(ctx) {
				started.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(started.Load())
}

// Close unsubscribes from auth events, closes every controller and waits
// for their background work to settle.
func (r *SessionRegistry) Close() {
	r.unsubscribe()

	r.mu.Lock()
	r.closed = true
	controllers := r.controllers
	r.controllers = make(map[string]*PortfolioController)
	r.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
	for _, c := range controllers {
		c.Wait()
	}
}
