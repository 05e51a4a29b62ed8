package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "gw_session"
	// SessionTokenLength is the length of the session token in bytes.
	SessionTokenLength = 32

	sessionKeyPrefix = "session_"
)

// SessionService manages browser sessions for the authorize flow. Sessions
// live in the transient store so they expire on their own.
type SessionService struct {
	transients   store.TransientRepository
	cookieSecure bool
	cookieDomain string
	sessionTTL   time.Duration
}

// SessionServiceOption configures the SessionService.
type SessionServiceOption func(*SessionService)

// WithCookieSecure sets whether cookies should be secure (HTTPS only).
func WithCookieSecure(secure bool) SessionServiceOption {
	return func(s *SessionService) {
		s.cookieSecure = secure
	}
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) SessionServiceOption {
	return func(s *SessionService) {
		s.cookieDomain = domain
	}
}

// WithSessionTTL sets the session duration.
func WithSessionTTL(ttl time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.sessionTTL = ttl
	}
}

// NewSessionService creates a new SessionService.
func NewSessionService(transients store.TransientRepository, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		transients: transients,
		sessionTTL: 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateSession creates a new session for a user and returns the session token.
func (s *SessionService) CreateSession(ctx context.Context, userID, userAgent, ipAddress string) (*domain.Session, string, error) {
	tokenBytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	session := &domain.Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.sessionTTL),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.transients.SetTransient(ctx, sessionKeyPrefix+token, session, s.sessionTTL); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	return session, token, nil
}

// GetSession retrieves a session by token.
func (s *SessionService) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := s.transients.GetTransient(ctx, sessionKeyPrefix+token, &session)
	if err == store.ErrNotFound {
		return nil, gwerrors.New(gwerrors.CodeNoToken, "no session")
	}
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		_ = s.transients.DeleteTransient(ctx, sessionKeyPrefix+token)
		return nil, gwerrors.New(gwerrors.CodeNoToken, "session expired")
	}
	return &session, nil
}

// GetSessionFromRequest retrieves the session from request cookies.
func (s *SessionService) GetSessionFromRequest(ctx context.Context, r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, gwerrors.New(gwerrors.CodeNoToken, "no session cookie")
	}
	return s.GetSession(ctx, cookie.Value)
}

// DeleteSession deletes a session.
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	return s.transients.DeleteTransient(ctx, sessionKeyPrefix+token)
}

// RotateSession creates a new session and invalidates the old one. Called
// after login so a pre-login cookie can never be promoted.
func (s *SessionService) RotateSession(ctx context.Context, oldToken, userID, userAgent, ipAddress string) (*domain.Session, string, error) {
	if oldToken != "" {
		_ = s.DeleteSession(ctx, oldToken)
	}
	return s.CreateSession(ctx, userID, userAgent, ipAddress)
}

// SetSessionCookie sets the session cookie on the response.
func (s *SessionService) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cookieDomain,
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie.
func (s *SessionService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
