// Package token implements the token service: OAuth client registry,
// authorization codes, signed access tokens and refresh tokens.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

const (
	signingSecretOptionKey = "jwt_signing_secret"
	clientOptionPrefix     = "client_"
	authCodeKeyPrefix      = "auth_code_"
	refreshKeyPrefix       = "refresh_"

	// replayWindow is how long a used authorization code is retained so a
	// replayed exchange fails with code_used instead of invalid_code.
	replayWindow = 60 * time.Second
)

// Claims is the access-token claim set. Tokens are self-contained; validity
// is proven by signature and expiry alone.
type Claims struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

// RefreshResult is the response of a refresh exchange.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// Service issues and validates codes and tokens and owns the client registry
// and the process-wide signing secret.
type Service struct {
	options    store.OptionRepository
	transients store.TransientRepository
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	codeTTL    time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	secret []byte
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAccessTokenTTL overrides the default access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.accessTTL = ttl
	}
}

// WithRefreshTokenTTL overrides the default refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.refreshTTL = ttl
	}
}

// WithAuthCodeTTL overrides the default authorization code lifetime.
func WithAuthCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.codeTTL = ttl
	}
}

// NewService creates a new token Service.
func NewService(options store.OptionRepository, transients store.TransientRepository, issuer string, opts ...Option) *Service {
	s := &Service{
		options:    options,
		transients: transients,
		issuer:     issuer,
		accessTTL:  time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
		codeTTL:    10 * time.Minute,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// signingSecret returns the process-wide signing secret, lazily creating and
// persisting it on first use.
func (s *Service) signingSecret(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secret != nil {
		return s.secret, nil
	}

	var encoded string
	err := s.options.GetOption(ctx, signingSecretOptionKey, &encoded)
	if err == nil && encoded != "" {
		secret, decErr := base64.RawURLEncoding.DecodeString(encoded)
		if decErr != nil {
			return nil, gwerrors.Internal("stored signing secret is corrupt", decErr)
		}
		s.secret = secret
		return s.secret, nil
	}
	if err != nil && err != store.ErrNotFound {
		return nil, err
	}

	secret := make([]byte, 64)
	if _, err := rand.Read(secret); err != nil {
		return nil, gwerrors.Internal("failed to generate signing secret", err)
	}
	if err := s.options.SetOption(ctx, signingSecretOptionKey, base64.RawURLEncoding.EncodeToString(secret)); err != nil {
		return nil, err
	}

	s.logger.Info("signing secret created")
	s.secret = secret
	return s.secret, nil
}

// RotateSecret replaces the signing secret. Every previously issued access
// token becomes invalid immediately since validity is purely signature-based.
func (s *Service) RotateSecret(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret := make([]byte, 64)
	if _, err := rand.Read(secret); err != nil {
		return gwerrors.Internal("failed to generate signing secret", err)
	}
	if err := s.options.SetOption(ctx, signingSecretOptionKey, base64.RawURLEncoding.EncodeToString(secret)); err != nil {
		return err
	}

	s.secret = secret
	s.logger.Info("signing secret rotated")
	return nil
}

// GenerateAuthorizationCode creates a single-use authorization code bound to
// the client and user.
func (s *Service) GenerateAuthorizationCode(ctx context.Context, clientID, userID string, scopes []string) (string, error) {
	code, err := randomToken(32)
	if err != nil {
		return "", err
	}

	authCode := &domain.AuthCode{
		Code:      code,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(s.codeTTL),
		Used:      false,
	}

	if err := s.transients.SetTransient(ctx, authCodeKeyPrefix+code, authCode, s.codeTTL); err != nil {
		return "", err
	}

	return code, nil
}

// ValidateAuthorizationCode exchanges a code. The first successful call marks
// the code used and shrinks its remaining lifetime to the replay-detection
// window; any later call fails with code_used.
func (s *Service) ValidateAuthorizationCode(ctx context.Context, code, clientID string) (*domain.AuthCode, error) {
	var authCode domain.AuthCode
	err := s.transients.GetTransient(ctx, authCodeKeyPrefix+code, &authCode)
	if err == store.ErrNotFound {
		return nil, gwerrors.New(gwerrors.CodeInvalidCode, "authorization code is invalid or expired")
	}
	if err != nil {
		return nil, err
	}

	if authCode.Used {
		_ = s.transients.DeleteTransient(ctx, authCodeKeyPrefix+code)
		return nil, gwerrors.New(gwerrors.CodeCodeUsed, "authorization code has already been used")
	}

	if authCode.ClientID != clientID {
		return nil, gwerrors.New(gwerrors.CodeClientMismatch, "client ID does not match")
	}

	if authCode.IsExpired() {
		_ = s.transients.DeleteTransient(ctx, authCodeKeyPrefix+code)
		return nil, gwerrors.New(gwerrors.CodeCodeExpired, "authorization code has expired")
	}

	authCode.Used = true
	if err := s.transients.SetTransient(ctx, authCodeKeyPrefix+code, &authCode, replayWindow); err != nil {
		return nil, err
	}

	return &authCode, nil
}

// GenerateAccessToken builds and signs a self-contained access token.
func (s *Service) GenerateAccessToken(ctx context.Context, userID, clientID string, scopes []string) (string, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		ClientID: clientID,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", gwerrors.Internal("failed to sign access token", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature and expiry and returns the decoded
// claims.
func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.TokenData, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, gwerrors.New(gwerrors.CodeTokenExpired, "access token has expired")
		}
		return nil, gwerrors.Wrap(err, gwerrors.CodeInvalidToken, "invalid access token")
	}

	return &domain.TokenData{
		UserID:    claims.Subject,
		ClientID:  claims.ClientID,
		Scopes:    claims.Scopes,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// GenerateRefreshToken creates an opaque refresh token bound to the user,
// client and scopes.
func (s *Service) GenerateRefreshToken(ctx context.Context, userID, clientID string, scopes []string) (string, error) {
	token, err := randomToken(64)
	if err != nil {
		return "", err
	}

	refresh := &domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		ClientID:  clientID,
		Scopes:    scopes,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}

	if err := s.transients.SetTransient(ctx, refreshKeyPrefix+token, refresh, s.refreshTTL); err != nil {
		return "", err
	}

	return token, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token. The
// refresh token itself is left intact and stays usable until its own expiry.
func (s *Service) RefreshAccessToken(ctx context.Context, token, clientID string) (*RefreshResult, error) {
	var refresh domain.RefreshToken
	err := s.transients.GetTransient(ctx, refreshKeyPrefix+token, &refresh)
	if err == store.ErrNotFound {
		return nil, gwerrors.New(gwerrors.CodeInvalidRefreshToken, "refresh token is invalid or expired")
	}
	if err != nil {
		return nil, err
	}

	if refresh.ClientID != clientID {
		return nil, gwerrors.New(gwerrors.CodeClientMismatch, "client ID does not match")
	}

	if refresh.IsExpired() {
		_ = s.transients.DeleteTransient(ctx, refreshKeyPrefix+token)
		return nil, gwerrors.New(gwerrors.CodeRefreshTokenExpired, "refresh token has expired")
	}

	accessToken, err := s.GenerateAccessToken(ctx, refresh.UserID, refresh.ClientID, refresh.Scopes)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		UserID:      refresh.UserID,
	}, nil
}

// RegisterClient creates a new OAuth client. The plaintext secret is returned
// exactly once; only its hash is persisted.
func (s *Service) RegisterClient(ctx context.Context, name, redirectURI, ownerUserID string) (*domain.ClientCredentials, error) {
	id, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	clientID := "client_" + id

	secret, err := randomToken(64)
	if err != nil {
		return nil, err
	}

	secretHash, err := auth.HashPassword(secret)
	if err != nil {
		return nil, gwerrors.Internal("failed to hash client secret", err)
	}

	client := &domain.Client{
		ID:          clientID,
		SecretHash:  secretHash,
		Name:        name,
		RedirectURI: redirectURI,
		OwnerUserID: ownerUserID,
		CreatedAt:   time.Now(),
	}

	if err := s.options.SetOption(ctx, clientOptionPrefix+clientID, client); err != nil {
		return nil, err
	}

	s.logger.Info("client registered", "client_id", clientID, "name", name)

	return &domain.ClientCredentials{
		ClientID:     clientID,
		ClientSecret: secret,
		Name:         name,
		RedirectURI:  redirectURI,
	}, nil
}

// ValidateClient looks up a client and, when clientSecret is non-empty,
// verifies it against the stored hash in constant time.
func (s *Service) ValidateClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	var client domain.Client
	err := s.options.GetOption(ctx, clientOptionPrefix+clientID, &client)
	if err == store.ErrNotFound {
		return nil, gwerrors.New(gwerrors.CodeInvalidClient, "client ID not found")
	}
	if err != nil {
		return nil, err
	}

	if clientSecret != "" {
		valid, err := auth.VerifyPassword(clientSecret, client.SecretHash)
		if err != nil || !valid {
			return nil, gwerrors.New(gwerrors.CodeInvalidClientSecret, "client secret is invalid")
		}
	}

	return &client, nil
}

// ValidateRedirectURI requires the URI to exactly match the registered one.
// Exact string equality is a deliberate security boundary: no pattern or
// prefix matching.
func (s *Service) ValidateRedirectURI(ctx context.Context, clientID, redirectURI string) error {
	client, err := s.ValidateClient(ctx, clientID, "")
	if err != nil {
		return err
	}
	if client.RedirectURI != redirectURI {
		return gwerrors.New(gwerrors.CodeInvalidRedirectURI, "redirect URI does not match")
	}
	return nil
}

// CheckScope reports whether the token grants the required scope. The admin
// scope satisfies any requirement.
func (s *Service) CheckScope(data *domain.TokenData, required string) bool {
	if data == nil {
		return false
	}
	return data.HasScope(required)
}

// RevokeToken deletes a refresh token. Revoking an unknown token is a no-op.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	return s.transients.DeleteTransient(ctx, refreshKeyPrefix+token)
}

// RevokeClient deletes a client registration. Revoking an unknown client is
// a no-op.
func (s *Service) RevokeClient(ctx context.Context, clientID string) error {
	return s.options.DeleteOption(ctx, clientOptionPrefix+clientID)
}

// randomToken returns a URL-safe random string of the given length.
func randomToken(length int) (string, error) {
	buf := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(buf); err != nil {
		return "", gwerrors.Internal("failed to generate random token", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
