package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

// Service authenticates users against the host's credential store.
type Service struct {
	users   store.UserRepository
	lockout *LockoutService
	logger  *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLockout enables account lockout after repeated failures.
func WithLockout(lockout *LockoutService) ServiceOption {
	return func(s *Service) {
		s.lockout = lockout
	}
}

// NewService creates a new auth Service.
func NewService(users store.UserRepository, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authenticate verifies user credentials and returns the user if valid.
// Failures never reveal whether the username exists.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if s.lockout != nil && s.lockout.IsLocked(username) {
		return nil, gwerrors.New(gwerrors.CodeAuthenticationFailed, "too many failed attempts, try again later")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if err == store.ErrNotFound {
			s.recordFailure(username)
			return nil, gwerrors.New(gwerrors.CodeAuthenticationFailed, "invalid username or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Active {
		return nil, gwerrors.New(gwerrors.CodeAuthenticationFailed, "account is disabled")
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verification error", "error", err)
		return nil, gwerrors.New(gwerrors.CodeAuthenticationFailed, "invalid username or password")
	}

	if !valid {
		s.recordFailure(username)
		return nil, gwerrors.New(gwerrors.CodeAuthenticationFailed, "invalid username or password")
	}

	if s.lockout != nil {
		s.lockout.RecordSuccess(username)
	}

	return user, nil
}

func (s *Service) recordFailure(username string) {
	if s.lockout == nil {
		return
	}
	if s.lockout.RecordFailure(username) {
		s.logger.Warn("account locked after repeated failures", "username", username)
	}
}
