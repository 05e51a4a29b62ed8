// Package file implements file-based storage using JSON files.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

// Store implements store.Store using JSON files for persistence.
type Store struct {
	dataDir string
	mu      sync.RWMutex

	users   *userRepository
	content *contentRepository
}

// Option configures the Store.
type Option func(*Store)

// NewStore creates a new file-based store.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		dataDir: dataDir,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.users = &userRepository{store: s}
	s.content = &contentRepository{store: s}

	return s, nil
}

func (s *Store) Users() store.UserRepository      { return s.users }
func (s *Store) Content() store.ContentRepository { return s.content }
func (s *Store) Close() error                     { return nil }

// Helper methods for file operations

func (s *Store) filePath(name string) string {
	return filepath.Join(s.dataDir, name+".json")
}

func (s *Store) readFile(name string, v any) error {
	data, err := os.ReadFile(s.filePath(name))
	if os.IsNotExist(err) {
		return nil // Empty collection
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath(name), data, 0600)
}

// Options

type optionsData struct {
	Options map[string]json.RawMessage `json:"options"`
}

func (s *Store) loadOptions() (*optionsData, error) {
	var data optionsData
	if err := s.readFile("options", &data); err != nil {
		return nil, err
	}
	if data.Options == nil {
		data.Options = map[string]json.RawMessage{}
	}
	return &data, nil
}

// GetOption reads a durable option into v. Missing keys fail with a not-found
// shaped internal code so callers can translate.
func (s *Store) GetOption(ctx context.Context, key string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.loadOptions()
	if err != nil {
		return gwerrors.Internal("failed to load options", err)
	}
	raw, ok := data.Options[key]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, v)
}

// SetOption writes a durable option.
func (s *Store) SetOption(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadOptions()
	if err != nil {
		return gwerrors.Internal("failed to load options", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return gwerrors.Internal("failed to encode option", err)
	}
	data.Options[key] = raw
	return s.writeFile("options", data)
}

// DeleteOption removes a durable option. Deleting a missing key is a no-op.
func (s *Store) DeleteOption(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadOptions()
	if err != nil {
		return gwerrors.Internal("failed to load options", err)
	}
	delete(data.Options, key)
	return s.writeFile("options", data)
}

// Transients

type transientEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type transientsData struct {
	Transients map[string]transientEntry `json:"transients"`
}

func (s *Store) loadTransients() (*transientsData, error) {
	var data transientsData
	if err := s.readFile("transients", &data); err != nil {
		return nil, err
	}
	if data.Transients == nil {
		data.Transients = map[string]transientEntry{}
	}
	return &data, nil
}

// GetTransient reads a transient into v. Expired entries behave like missing
// keys (and are evicted lazily on the next write).
func (s *Store) GetTransient(ctx context.Context, key string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.loadTransients()
	if err != nil {
		return gwerrors.Internal("failed to load transients", err)
	}
	entry, ok := data.Transients[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return store.ErrNotFound
	}
	return json.Unmarshal(entry.Value, v)
}

// SetTransient writes a transient with the given TTL, evicting any expired
// entries in passing.
func (s *Store) SetTransient(ctx context.Context, key string, v any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadTransients()
	if err != nil {
		return gwerrors.Internal("failed to load transients", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return gwerrors.Internal("failed to encode transient", err)
	}

	now := time.Now()
	for k, entry := range data.Transients {
		if now.After(entry.ExpiresAt) {
			delete(data.Transients, k)
		}
	}

	data.Transients[key] = transientEntry{
		Value:     raw,
		ExpiresAt: now.Add(ttl),
	}
	return s.writeFile("transients", data)
}

// DeleteTransient removes a transient. Deleting a missing key is a no-op.
func (s *Store) DeleteTransient(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadTransients()
	if err != nil {
		return gwerrors.Internal("failed to load transients", err)
	}
	delete(data.Transients, key)
	return s.writeFile("transients", data)
}

// Counters
//
// Counters ride on the transient mechanism: an int64 value with the window
// length as TTL. The read-increment-write sequence is not atomic with the
// expiry arming; a race at a bucket's first write can leave a counter living
// slightly past its window. It never under-counts.

// Increment increments a counter, arming its expiry on first write.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadTransients()
	if err != nil {
		return 0, gwerrors.Internal("failed to load counters", err)
	}

	var count int64
	entry, ok := data.Transients[key]
	if ok && time.Now().Before(entry.ExpiresAt) {
		if err := json.Unmarshal(entry.Value, &count); err != nil {
			count = 0
		}
	} else {
		entry = transientEntry{ExpiresAt: time.Now().Add(ttl)}
	}
	count++

	raw, err := json.Marshal(count)
	if err != nil {
		return 0, gwerrors.Internal("failed to encode counter", err)
	}
	entry.Value = raw
	data.Transients[key] = entry

	if err := s.writeFile("transients", data); err != nil {
		return 0, err
	}
	return count, nil
}

// GetCount reads a counter; missing or expired counters read as zero.
func (s *Store) GetCount(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.GetTransient(ctx, key, &count)
	if err == store.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteCounter removes a counter.
func (s *Store) DeleteCounter(ctx context.Context, key string) error {
	return s.DeleteTransient(ctx, key)
}

// Purge deletes all gateway options, transients and counters. User and
// content records are left alone.
func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFile("options", &optionsData{Options: map[string]json.RawMessage{}}); err != nil {
		return gwerrors.Internal("failed to purge options", err)
	}
	if err := s.writeFile("transients", &transientsData{Transients: map[string]transientEntry{}}); err != nil {
		return gwerrors.Internal("failed to purge transients", err)
	}
	return nil
}

// User Repository

type userRepository struct {
	store *Store
}

type usersData struct {
	Users []*domain.User `json:"users"`
}

func (r *userRepository) load() (*usersData, error) {
	var data usersData
	if err := r.store.readFile("users", &data); err != nil {
		return nil, err
	}
	if data.Users == nil {
		data.Users = []*domain.User{}
	}
	return &data, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return gwerrors.Internal("failed to load users", err)
	}

	for _, u := range data.Users {
		if u.ID == user.ID || u.Username == user.Username {
			return gwerrors.InvalidRequest("user already exists: " + user.Username)
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	data.Users = append(data.Users, user)

	return r.store.writeFile("users", data)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load users", err)
	}
	for _, u := range data.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load users", err)
	}
	for _, u := range data.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load users", err)
	}
	return data.Users, nil
}

// Content Repository

type contentRepository struct {
	store *Store
}

type contentData struct {
	Posts []*domain.Post `json:"posts"`
}

func (r *contentRepository) load() (*contentData, error) {
	var data contentData
	if err := r.store.readFile("content", &data); err != nil {
		return nil, err
	}
	if data.Posts == nil {
		data.Posts = []*domain.Post{}
	}
	return &data, nil
}

func (r *contentRepository) Create(ctx context.Context, post *domain.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return gwerrors.Internal("failed to load content", err)
	}

	for _, p := range data.Posts {
		if p.ID == post.ID {
			return gwerrors.InvalidRequest("post already exists: " + post.ID)
		}
	}

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	data.Posts = append(data.Posts, post)

	return r.store.writeFile("content", data)
}

func (r *contentRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load content", err)
	}
	for _, p := range data.Posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *contentRepository) GetBySlug(ctx context.Context, slug, postType string) (*domain.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load content", err)
	}
	for _, p := range data.Posts {
		if p.Slug == slug && p.Type == postType {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *contentRepository) Search(ctx context.Context, q store.ContentQuery) ([]*domain.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, gwerrors.Internal("failed to load content", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var results []*domain.Post
	skipped := 0
	for _, p := range data.Posts {
		if !matches(p, q) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		results = append(results, p)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func matches(p *domain.Post, q store.ContentQuery) bool {
	if q.Type != "" && p.Type != q.Type {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.AuthorID != "" && p.AuthorID != q.AuthorID {
		return false
	}
	if q.ParentID != "" && p.ParentID != q.ParentID {
		return false
	}
	if q.Category != "" && !containsFold(p.Categories, q.Category) {
		return false
	}
	if q.Tag != "" && !containsFold(p.Tags, q.Tag) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			return false
		}
	}
	return true
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
