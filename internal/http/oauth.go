package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/metrics"
	"github.com/agentgate/agentgate/internal/token"
)

// OAuthHandler serves the authorization-code flow, token exchange, refresh
// and direct authentication.
type OAuthHandler struct {
	tokens    *token.Service
	authSvc   *auth.Service
	sessions  *auth.SessionService
	blacklist *auth.Blacklist
	logger    *slog.Logger
}

// NewOAuthHandler creates the OAuth handler.
func NewOAuthHandler(tokens *token.Service, authSvc *auth.Service, sessions *auth.SessionService, blacklist *auth.Blacklist, logger *slog.Logger) *OAuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthHandler{
		tokens:    tokens,
		authSvc:   authSvc,
		sessions:  sessions,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Authorize handles GET /oauth/authorize. An unauthenticated browser is sent
// to the login page and returns here afterwards.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	responseType := q.Get("response_type")
	state := q.Get("state")

	if clientID == "" || redirectURI == "" {
		writeError(w, gwerrors.InvalidRequest("client_id and redirect_uri are required"))
		return
	}
	if responseType != "code" {
		writeError(w, gwerrors.InvalidRequest("response_type must be \"code\""))
		return
	}

	if _, err := h.tokens.ValidateClient(ctx, clientID, ""); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tokens.ValidateRedirectURI(ctx, clientID, redirectURI); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.sessions.GetSessionFromRequest(ctx, r)
	if err != nil {
		login := url.URL{Path: "/login"}
		v := url.Values{}
		v.Set("return_url", r.URL.RequestURI())
		login.RawQuery = v.Encode()
		http.Redirect(w, r, login.String(), http.StatusFound)
		return
	}

	scopes := parseScopes(q.Get("scope"))
	code, err := h.tokens.GenerateAuthorizationCode(ctx, clientID, session.UserID, scopes)
	if err != nil {
		h.logger.Error("failed to generate authorization code", "error", err, "client_id", clientID)
		writeError(w, err)
		return
	}
	metrics.RecordAuthCodeIssued()

	dest, err := url.Parse(redirectURI)
	if err != nil {
		writeError(w, gwerrors.New(gwerrors.CodeInvalidRedirectURI, "redirect URI is not a valid URL"))
		return
	}
	v := dest.Query()
	v.Set("code", code)
	if state != "" {
		v.Set("state", state)
	}
	dest.RawQuery = v.Encode()
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token handles POST /oauth/token, exchanging an authorization code for an
// access and refresh token pair.
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		writeError(w, gwerrors.InvalidRequest("malformed form body"))
		return
	}

	grantType := r.PostFormValue("grant_type")
	if grantType != "authorization_code" {
		writeError(w, gwerrors.New(gwerrors.CodeUnsupportedGrantType, "grant_type must be \"authorization_code\""))
		return
	}

	code := r.PostFormValue("code")
	clientID := r.PostFormValue("client_id")
	clientSecret := r.PostFormValue("client_secret")
	if code == "" || clientID == "" {
		writeError(w, gwerrors.InvalidRequest("code and client_id are required"))
		return
	}
	if clientSecret == "" {
		writeError(w, gwerrors.InvalidRequest("client_secret is required"))
		return
	}

	if _, err := h.tokens.ValidateClient(ctx, clientID, clientSecret); err != nil {
		writeError(w, err)
		return
	}

	authCode, err := h.tokens.ValidateAuthorizationCode(ctx, code, clientID)
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(ctx, authCode.UserID, clientID, authCode.Scopes)
	if err != nil {
		h.logger.Error("failed to generate access token", "error", err, "client_id", clientID)
		writeError(w, err)
		return
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(ctx, authCode.UserID, clientID, authCode.Scopes)
	if err != nil {
		h.logger.Error("failed to generate refresh token", "error", err, "client_id", clientID)
		writeError(w, err)
		return
	}

	metrics.RecordTokenIssued("access", "authorization_code")
	metrics.RecordTokenIssued("refresh", "authorization_code")

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.tokens.AccessTokenTTL().Seconds()),
		RefreshToken: refreshToken,
		Scope:        strings.Join(authCode.Scopes, " "),
	})
}

// Refresh handles POST /oauth/refresh. A missing client_id means a
// direct-authentication refresh.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		writeError(w, gwerrors.InvalidRequest("malformed form body"))
		return
	}

	refreshToken := r.PostFormValue("refresh_token")
	if refreshToken == "" {
		writeError(w, gwerrors.InvalidRequest("refresh_token is required"))
		return
	}

	clientID := r.PostFormValue("client_id")
	if clientID == "" {
		clientID = domain.DirectAuthClientID
	}
	if clientID != domain.DirectAuthClientID {
		clientSecret := r.PostFormValue("client_secret")
		if clientSecret == "" {
			writeError(w, gwerrors.InvalidRequest("client_secret is required"))
			return
		}
		if _, err := h.tokens.ValidateClient(ctx, clientID, clientSecret); err != nil {
			writeError(w, err)
			return
		}
	}

	result, err := h.tokens.RefreshAccessToken(ctx, refreshToken, clientID)
	if err != nil {
		writeError(w, err)
		return
	}

	// A refreshed token must not outlive a revocation.
	blocked, err := h.blacklist.IsBlacklisted(ctx, result.UserID)
	if err != nil {
		h.logger.Error("blacklist check failed", "error", err, "user_id", result.UserID)
		writeError(w, gwerrors.Internal("authorization check failed", err))
		return
	}
	if blocked {
		writeError(w, gwerrors.New(gwerrors.CodeAccessDenied, "access revoked"))
		return
	}

	metrics.RecordTokenIssued("access", "refresh_token")
	writeJSON(w, http.StatusOK, result)
}

type directLoginResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
}

// DirectLogin handles POST /auth/login: username and password in, token pair
// out, no browser round-trip.
func (h *OAuthHandler) DirectLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		writeError(w, gwerrors.InvalidRequest("malformed form body"))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, gwerrors.InvalidRequest("username and password are required"))
		return
	}

	user, err := h.authSvc.Authenticate(ctx, username, password)
	if err != nil {
		metrics.RecordLoginAttempt("failure")
		writeError(w, err)
		return
	}

	blocked, err := h.blacklist.IsBlacklisted(ctx, user.ID)
	if err != nil {
		h.logger.Error("blacklist check failed", "error", err, "user_id", user.ID)
		writeError(w, gwerrors.Internal("authorization check failed", err))
		return
	}
	if blocked {
		metrics.RecordLoginAttempt("blocked")
		writeError(w, gwerrors.New(gwerrors.CodeAccessDenied, "access revoked"))
		return
	}

	scopes := []string{domain.ScopeRead, domain.ScopeWrite}
	accessToken, err := h.tokens.GenerateAccessToken(ctx, user.ID, domain.DirectAuthClientID, scopes)
	if err != nil {
		h.logger.Error("failed to generate access token", "error", err, "user_id", user.ID)
		writeError(w, err)
		return
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(ctx, user.ID, domain.DirectAuthClientID, scopes)
	if err != nil {
		h.logger.Error("failed to generate refresh token", "error", err, "user_id", user.ID)
		writeError(w, err)
		return
	}

	metrics.RecordLoginAttempt("success")
	metrics.RecordTokenIssued("access", "password")
	metrics.RecordTokenIssued("refresh", "password")

	writeJSON(w, http.StatusOK, directLoginResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.tokens.AccessTokenTTL().Seconds()),
		RefreshToken: refreshToken,
		Scope:        strings.Join(scopes, " "),
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
	})
}

// parseScopes splits a space-separated scope string, defaulting to read-only.
func parseScopes(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return []string{domain.ScopeRead}
	}
	return fields
}
