package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"carservice/internal/auth"
	apperrors "carservice/internal/errors"
	"carservice/internal/model"
)

var (
	// ErrInvalidCredentials is returned when the backend refuses the username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator is the part of the backend API the login flow needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

// AuthService owns the session lifecycle: created at login, resumed on every request,
// destroyed on logout or when the backend reports the token expired.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Resume(ctx context.Context, id string) (*model.Session, error)
	Logout(ctx context.Context, id string) error
	Drop(ctx context.Context, id string) error
	Authenticated(sess *model.Session) bool
}

type authService struct {
	backend Authenticator
	store   auth.Store
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(backend Authenticator, store auth.Store, ttl time.Duration, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		backend: backend,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Login authenticates against the backend and stores a new session.
// A response carrying a role the client cannot route creates no session.
func (s *authService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.Validation("Username and password are required.")
	}

	resp, err := s.backend.Login(ctx, username, password)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindNetwork:
			return nil, err
		case apperrors.KindAuthExpired, apperrors.KindRejected:
			return nil, ErrInvalidCredentials
		default:
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	if resp.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	if !model.KnownRole(resp.Role) {
		s.logger.Warn("login returned unknown role", "username", username, "role", resp.Role)
		return nil, apperrors.ErrInvalidRole
	}

	now := s.now()
	sess := &model.Session{
		ID:        uuid.New(),
		Token:     resp.AccessToken,
		Username:  resp.Username,
		Role:      resp.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if sess.Username == "" {
		sess.Username = username
	}
	if err := s.store.Save(ctx, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("session started", "username", sess.Username, "role", sess.Role)
	return sess, nil
}

// Resume loads the session named by id. A missing session yields ErrSessionMissing;
// a session whose token is past its exp is dropped and reported as AuthExpired.
func (s *authService) Resume(ctx context.Context, id string) (*model.Session, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrSessionMissing
	}
	sess, err := s.store.Load(ctx, sid)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSessionMissing
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !s.Authenticated(sess) {
		_ = s.store.Delete(ctx, sid)
		return nil, apperrors.AuthExpired("resume session")
	}
	return sess, nil
}

// Logout tells the backend best-effort, then removes the session regardless.
func (s *authService) Logout(ctx context.Context, id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	sess, err := s.store.Load(ctx, sid)
	if err == nil && sess.Token != "" {
		if err := s.backend.Logout(ctx, sess.Token); err != nil {
			s.logger.Warn("backend logout failed", "username", sess.Username, "error", err)
		}
	}
	return s.store.Delete(ctx, sid)
}

// Drop removes the session without contacting the backend. Used after AuthExpired.
func (s *authService) Drop(ctx context.Context, id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return s.store.Delete(ctx, sid)
}

// Authenticated reports whether sess can be used for backend calls.
func (s *authService) Authenticated(sess *model.Session) bool {
	if sess == nil || sess.Token == "" {
		return false
	}
	now := s.now()
	if sess.Expired(now) {
		return false
	}
	return auth.Usable(sess.Token, now)
}
