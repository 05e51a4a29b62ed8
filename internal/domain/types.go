// Package domain defines the core types for the gateway.
package domain

import (
	"time"
)

// Scopes recognized by the gateway.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// DirectAuthClientID is the pseudo-client bound to tokens issued through
// direct username/password login, which bypasses the authorization-code flow.
const DirectAuthClientID = "direct_auth"

// User represents an identity on the host system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	Roles        []string  `json:"roles,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Client represents a registered OAuth 2.0 client application. Only the
// secret's one-way hash is persisted; the plaintext secret is returned
// exactly once at registration time.
type Client struct {
	ID          string    `json:"client_id"`
	SecretHash  string    `json:"client_secret_hash,omitempty"`
	Name        string    `json:"name"`
	RedirectURI string    `json:"redirect_uri"`
	OwnerUserID string    `json:"owner_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClientCredentials is the registration result handed back to the operator.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Name         string `json:"name"`
	RedirectURI  string `json:"redirect_uri"`
}

// AuthCode represents an OAuth 2.0 authorization code. Codes are single-use:
// the first successful exchange flips Used, and the used copy is retained
// briefly so a replayed exchange can be distinguished from an unknown code.
type AuthCode struct {
	Code      string    `json:"code"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

// IsExpired checks if the authorization code has expired.
func (a *AuthCode) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

// RefreshToken represents a stored refresh token. Access tokens are JWTs and
// are not stored.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the refresh token has expired.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// TokenData is the decoded claim set of a validated access token.
type TokenData struct {
	UserID    string   `json:"user_id"`
	ClientID  string   `json:"client_id"`
	Scopes    []string `json:"scopes"`
	IssuedAt  int64    `json:"issued_at"`
	ExpiresAt int64    `json:"expires_at"`
}

// HasScope reports whether the token grants the required scope. The admin
// scope satisfies any requirement.
func (d *TokenData) HasScope(required string) bool {
	for _, s := range d.Scopes {
		if s == ScopeAdmin || s == required {
			return true
		}
	}
	return false
}

// Session represents an authenticated browser session used by the authorize
// flow's login page.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Post is a content entry served by the content module. Pages are posts with
// Type "page".
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Slug       string    `json:"slug"`
	Status     string    `json:"status"`
	Type       string    `json:"type"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	ParentID   string    `json:"parent_id,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
