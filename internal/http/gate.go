package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/agentgate/agentgate/internal/auth"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/metrics"
	"github.com/agentgate/agentgate/internal/ratelimit"
	"github.com/agentgate/agentgate/internal/token"
)

// Gate authenticates and rate limits every protected request. Checks run in a
// fixed order: bearer token, token validity, blacklist, rate limit. Only
// requests that pass all of them are counted against the caller's quota.
type Gate struct {
	tokens    *token.Service
	blacklist *auth.Blacklist
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// NewGate creates the access gate.
func NewGate(tokens *token.Service, blacklist *auth.Blacklist, limiter *ratelimit.Limiter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tokens:    tokens,
		blacklist: blacklist,
		limiter:   limiter,
		logger:    logger,
	}
}

// Middleware enforces the gate and attaches the token data to the request
// context on success.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := extractBearerToken(r)
		if err != nil {
			writeError(w, err)
			return
		}

		data, err := g.tokens.ValidateAccessToken(ctx, raw)
		if err != nil {
			writeError(w, err)
			return
		}

		// The exclusion list is consulted on every request so revocation
		// takes effect even for tokens issued before the listing.
		blocked, err := g.blacklist.IsBlacklisted(ctx, data.UserID)
		if err != nil {
			g.logger.Error("blacklist check failed", "error", err, "user_id", data.UserID)
			writeError(w, gwerrors.Internal("authorization check failed", err))
			return
		}
		if blocked {
			writeError(w, gwerrors.New(gwerrors.CodeAccessDenied, "access revoked"))
			return
		}

		identifier := "user_" + data.UserID
		result, err := g.limiter.IsRateLimited(ctx, identifier, ratelimit.DefaultAction)
		if err != nil {
			g.logger.Error("rate limit check failed", "error", err, "user_id", data.UserID)
			writeError(w, gwerrors.Internal("rate limit check failed", err))
			return
		}
		if result.Limited {
			metrics.RecordRateLimitRejection(result.Reason)
			limitErr := gwerrors.New(gwerrors.CodeRateLimitExceeded, "rate limit exceeded").
				WithDetail("reason", result.Reason).
				WithDetail("limit", result.Limit).
				WithDetail("current", int(result.Current)).
				WithDetail("retry_after", result.RetryAfter)
			writeError(w, limitErr)
			return
		}

		if err := g.limiter.RecordRequest(ctx, identifier, ratelimit.DefaultAction); err != nil {
			g.logger.Warn("failed to record request", "error", err, "user_id", data.UserID)
		}

		next.ServeHTTP(w, r.WithContext(auth.WithTokenData(ctx, data)))
	})
}

// extractBearerToken pulls the raw token out of the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", gwerrors.New(gwerrors.CodeNoToken, "authorization header is required")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", gwerrors.New(gwerrors.CodeNoToken, "authorization header must use the Bearer scheme")
	}
	raw := strings.TrimSpace(header[len(prefix):])
	if raw == "" {
		return "", gwerrors.New(gwerrors.CodeNoToken, "bearer token is empty")
	}
	return raw, nil
}
