// Package store defines persistence interfaces for the gateway.
//
// The durable store mirrors the host's generic settings mechanism: long-lived
// values are "options", short-lived values are "transients" (value + TTL).
// Rate counters get their own narrow interface so the limiter can swap in a
// fast backend without touching callers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
)

// ErrNotFound is returned when a key or record does not exist. Expired
// transients read as not found.
var ErrNotFound = errors.New("not found")

// OptionRepository is durable key-value persistence for long-lived records
// (signing secret, client registrations, blacklist).
type OptionRepository interface {
	GetOption(ctx context.Context, key string, v any) error
	SetOption(ctx context.Context, key string, v any) error
	DeleteOption(ctx context.Context, key string) error
}

// TransientRepository is key-value persistence with expiry semantics for
// short-lived records (authorization codes, refresh tokens, sessions).
// A read of an expired transient behaves like a read of a missing key.
type TransientRepository interface {
	GetTransient(ctx context.Context, key string, v any) error
	SetTransient(ctx context.Context, key string, v any, ttl time.Duration) error
	DeleteTransient(ctx context.Context, key string) error
}

// CounterRepository is the narrow interface the rate limiter needs. Increment
// returns the counter value after incrementing; the first increment of a key
// also arms its expiry.
type CounterRepository interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	GetCount(ctx context.Context, key string) (int64, error)
	DeleteCounter(ctx context.Context, key string) error
}

// UserRepository defines operations for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// ContentRepository defines read operations for posts and pages plus the
// create used by seeding.
type ContentRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	GetBySlug(ctx context.Context, slug, postType string) (*domain.Post, error)
	Search(ctx context.Context, q ContentQuery) ([]*domain.Post, error)
}

// ContentQuery filters a content search.
type ContentQuery struct {
	Type     string
	Status   string
	Search   string
	Category string
	Tag      string
	AuthorID string
	ParentID string
	Limit    int
	Offset   int
}

// Store aggregates all repositories backed by the durable store.
type Store interface {
	OptionRepository
	TransientRepository
	CounterRepository
	Users() UserRepository
	Content() ContentRepository

	// Purge deletes all gateway data: options, transients and counters.
	// Used by uninstall housekeeping; user and content records are the
	// host's and are left alone.
	Purge(ctx context.Context) error

	Close() error
}
