package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

// In-memory stores shared by the auth tests

type memUsers struct {
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

type memOptions struct {
	options map[string]json.RawMessage
}

func newMemOptions() *memOptions {
	return &memOptions{options: make(map[string]json.RawMessage)}
}

func (m *memOptions) GetOption(ctx context.Context, key string, v any) error {
	raw, ok := m.options[key]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, v)
}

func (m *memOptions) SetOption(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.options[key] = raw
	return nil
}

func (m *memOptions) DeleteOption(ctx context.Context, key string) error {
	delete(m.options, key)
	return nil
}

type memTransients struct {
	entries map[string]memTransientEntry
}

type memTransientEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

func newMemTransients() *memTransients {
	return &memTransients{entries: make(map[string]memTransientEntry)}
}

func (m *memTransients) GetTransient(ctx context.Context, key string, v any) error {
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return store.ErrNotFound
	}
	return json.Unmarshal(entry.value, v)
}

func (m *memTransients) SetTransient(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = memTransientEntry{value: raw, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *memTransients) DeleteTransient(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func setupAuthService(t *testing.T, opts ...ServiceOption) (*Service, *memUsers) {
	t.Helper()
	users := newMemUsers()

	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users.users["u1"] = &domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: hash,
		Active:       true,
	}
	users.users["u2"] = &domain.User{
		ID:           "u2",
		Username:     "bob",
		PasswordHash: hash,
		Active:       false,
	}

	return NewService(users, opts...), users
}

func TestAuthenticate(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice", "correct-password")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("ID = %q, want u1", user.ID)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong-password"},
		{"unknown user", "nobody", "correct-password"},
		{"inactive account", "bob", "correct-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.username, tt.password)
			if !gwerrors.IsCode(err, gwerrors.CodeAuthenticationFailed) {
				t.Errorf("error = %v, want authentication_failed", err)
			}
		})
	}
}

func TestAuthenticateLockout(t *testing.T) {
	lockout := NewLockoutService(2, time.Minute)
	svc, _ := setupAuthService(t, WithLockout(lockout))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Authenticate(ctx, "alice", "wrong-password"); err == nil {
			t.Fatal("expected failure")
		}
	}

	// Correct credentials are rejected while locked
	_, err := svc.Authenticate(ctx, "alice", "correct-password")
	if !gwerrors.IsCode(err, gwerrors.CodeAuthenticationFailed) {
		t.Errorf("error = %v, want authentication_failed while locked", err)
	}
}

func TestAuthenticateSuccessClearsLockout(t *testing.T) {
	lockout := NewLockoutService(3, time.Minute)
	svc, _ := setupAuthService(t, WithLockout(lockout))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = svc.Authenticate(ctx, "alice", "wrong-password")
	}
	if _, err := svc.Authenticate(ctx, "alice", "correct-password"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if lockout.IsLocked("alice") {
		t.Error("lockout counter should be cleared on success")
	}
}
