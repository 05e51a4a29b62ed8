package auth

import (
	"context"

	"github.com/agentgate/agentgate/internal/domain"
)

type contextKey int

const tokenDataKey contextKey = iota

// WithTokenData attaches validated token claims to the request context.
func WithTokenData(ctx context.Context, data *domain.TokenData) context.Context {
	return context.WithValue(ctx, tokenDataKey, data)
}

// TokenDataFrom extracts the caller's token claims from the context.
func TokenDataFrom(ctx context.Context) (*domain.TokenData, bool) {
	data, ok := ctx.Value(tokenDataKey).(*domain.TokenData)
	return data, ok
}
