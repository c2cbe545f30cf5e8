package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danhyun/simpleshop/internal/domain"
)

// AuthService handles signup, login, and logout. It is the only writer of
// session identity.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	hasher   PasswordHasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions domain.SessionStore, hasher PasswordHasher) *AuthService {
	return &AuthService{users: users, sessions: sessions, hasher: hasher}
}

// Signup creates a new user account after validating inputs.
func (s *AuthService) Signup(ctx context.Context, email, password, nickname string) (*domain.User, error) {
	if email == "" || password == "" || nickname == "" {
		return nil, fmt.Errorf("%w: email, password, and nickname are required", domain.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email address", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
	}

	// The unique index is the real guard; the repository maps violations
	// to ErrDuplicateEmail.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a new session. Creating the session
// evicts any previous session for the same user, so a second login
// invalidates the first.
//
// ErrUnknownUser and ErrInvalidCredentials stay distinct for audit logging;
// callers must present both as the same generic unauthorized response.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Info("login failed", "reason", "unknown email")
			return nil, nil, domain.ErrUnknownUser
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		slog.Info("login failed", "reason", "bad password", "user_id", user.ID)
		return nil, nil, domain.ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, sess, nil
}

// Logout invalidates the session. It is idempotent and always succeeds:
// an absent session is a no-op, and store failures are logged rather than
// surfaced so that logout can always be reported as successful.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		slog.Error("invalidate session on logout", "error", err)
	}
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
