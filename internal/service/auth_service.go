package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fernet/fernet-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// DefaultSessionTTL is how long a session token stays valid when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// AuthEvent reports a change in authentication state for a session.
// User is nil when the session was signed out or expired.
type AuthEvent struct {
	SessionID string
	User      *model.User
}

// SignedIn reports whether the event opens a session.
func (e AuthEvent) SignedIn() bool {
	return e.User != nil
}

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	Token   string        `json:"token"`
	User    model.User    `json:"user"`
	Session model.Session `json:"session"`
}

// AuthOptions tunes an AuthService.
type AuthOptions struct {
	SessionTTL time.Duration
	BcryptCost int
}

// AuthService is the identity provider. It stores bcrypt password hashes,
// issues fernet session tokens carrying the session ID and notifies subscribers
// when sessions open or close.
type AuthService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	key      *fernet.Key
	ttl      time.Duration
	cost     int
	logger   *zap.Logger

	mu        sync.Mutex
	listeners map[int]func(AuthEvent)
	nextID    int
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	key *fernet.Key,
	opts AuthOptions,
	logger *zap.Logger,
) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		key:       key,
		ttl:       opts.SessionTTL,
		cost:      opts.BcryptCost,
		logger:    logger,
		listeners: make(map[int]func(AuthEvent)),
	}
}

// OnAuthChange registers fn to be called on every sign-in and sign-out.
// The returned function removes the subscription.
func (s *AuthService) OnAuthChange(fn func(AuthEvent)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) emit(ev AuthEvent) {
	s.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SignUp registers a new account.
func (s *AuthService) SignUp(ctx context.Context, req request.SignUpRequest) (model.User, error) {
	if err := validation.ValidateSignUp(req); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSignUp, err)
	}

	user, err := s.users.InsertUser(ctx, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserExists) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSignUp, err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// SignIn checks the credentials and opens a session.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, req request.SignInRequest) (SignInResult, error) {
	if err := validation.ValidateSignIn(req); err != nil {
		return SignInResult{}, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return SignInResult{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSignIn, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return SignInResult{}, apperrors.ErrInvalidCredentials
	}

	session, err := s.sessions.InsertSession(ctx, user.ID, s.ttl)
	if err != nil {
		return SignInResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSignIn, err)
	}

	token, err := fernet.EncryptAndSign([]byte(session.ID), s.key)
	if err != nil {
		return SignInResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSignIn, err)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	s.emit(AuthEvent{SessionID: session.ID, User: &user})

	return SignInResult{Token: string(token), User: user, Session: session}, nil
}

// SignOut revokes the session behind token.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	sessionID, err := s.sessionID(token)
	if err != nil {
		return err
	}

	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return apperrors.ErrNotAuthenticated
		}
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToSignOut, err)
	}

	s.logger.Info("user signed out", zap.String("session_id", sessionID))
	s.emit(AuthEvent{SessionID: sessionID})
	return nil
}

// CurrentUser resolves a token to its signed-in user and session.
// Returns ErrNotAuthenticated for malformed, expired or revoked tokens.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (model.User, model.Session, error) {
	sessionID, err := s.sessionID(token)
	if err != nil {
		return model.User{}, model.Session{}, err
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return model.User{}, model.Session{}, apperrors.ErrNotAuthenticated
	}
	if err != nil {
		return model.User{}, model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(time.Now()) {
		return model.User{}, model.Session{}, apperrors.ErrNotAuthenticated
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return model.User{}, model.Session{}, apperrors.ErrNotAuthenticated
	}
	if err != nil {
		return model.User{}, model.Session{}, fmt.Errorf("failed to load user: %w", err)
	}

	return user, session, nil
}

// PurgeExpiredSessions deletes expired sessions and emits a sign-out event for each.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int, error) {
	ids, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.emit(AuthEvent{SessionID: id})
	}
	if len(ids) > 0 {
		s.logger.Info("purged expired sessions", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

func (s *AuthService) sessionID(token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), s.ttl, []*fernet.Key{s.key})
	if msg == nil {
		return "", apperrors.ErrNotAuthenticated
	}
	return string(msg), nil
}
