package file

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/store"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestOptions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SetOption(ctx, "site_name", "AgentGate"); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}

	var name string
	if err := s.GetOption(ctx, "site_name", &name); err != nil {
		t.Fatalf("GetOption() error = %v", err)
	}
	if name != "AgentGate" {
		t.Errorf("name = %q, want AgentGate", name)
	}

	// Overwrite
	if err := s.SetOption(ctx, "site_name", "Other"); err != nil {
		t.Fatalf("SetOption() overwrite error = %v", err)
	}
	if err := s.GetOption(ctx, "site_name", &name); err != nil {
		t.Fatalf("GetOption() error = %v", err)
	}
	if name != "Other" {
		t.Errorf("name = %q, want Other", name)
	}

	if err := s.DeleteOption(ctx, "site_name"); err != nil {
		t.Fatalf("DeleteOption() error = %v", err)
	}
	if err := s.GetOption(ctx, "site_name", &name); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	// Deleting twice is a no-op
	if err := s.DeleteOption(ctx, "site_name"); err != nil {
		t.Errorf("second DeleteOption() error = %v", err)
	}
}

func TestOptionsStructValue(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	client := &domain.Client{ID: "client-1", Name: "Test", RedirectURI: "https://a.example.com/cb"}
	if err := s.SetOption(ctx, "client_client-1", client); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}

	var got domain.Client
	if err := s.GetOption(ctx, "client_client-1", &got); err != nil {
		t.Fatalf("GetOption() error = %v", err)
	}
	if got.Name != "Test" || got.RedirectURI != "https://a.example.com/cb" {
		t.Errorf("got = %+v", got)
	}
}

func TestOptionsPersistAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s1.SetOption(ctx, "key", "value"); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	var value string
	if err := s2.GetOption(ctx, "key", &value); err != nil {
		t.Fatalf("GetOption() on second instance error = %v", err)
	}
	if value != "value" {
		t.Errorf("value = %q, want value", value)
	}
}

func TestTransients(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SetTransient(ctx, "code", "abc123", time.Minute); err != nil {
		t.Fatalf("SetTransient() error = %v", err)
	}

	var value string
	if err := s.GetTransient(ctx, "code", &value); err != nil {
		t.Fatalf("GetTransient() error = %v", err)
	}
	if value != "abc123" {
		t.Errorf("value = %q, want abc123", value)
	}

	if err := s.DeleteTransient(ctx, "code"); err != nil {
		t.Fatalf("DeleteTransient() error = %v", err)
	}
	if err := s.GetTransient(ctx, "code", &value); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTransientExpiry(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SetTransient(ctx, "ephemeral", "gone", -time.Second); err != nil {
		t.Fatalf("SetTransient() error = %v", err)
	}

	var value string
	if err := s.GetTransient(ctx, "ephemeral", &value); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired read error = %v, want ErrNotFound", err)
	}
}

func TestTransientLazyEviction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SetTransient(ctx, "old", "stale", -time.Second); err != nil {
		t.Fatalf("SetTransient() error = %v", err)
	}
	// The next write sweeps expired entries
	if err := s.SetTransient(ctx, "new", "fresh", time.Minute); err != nil {
		t.Fatalf("SetTransient() error = %v", err)
	}

	data, err := s.loadTransients()
	if err != nil {
		t.Fatalf("loadTransients() error = %v", err)
	}
	if _, ok := data.Transients["old"]; ok {
		t.Error("expired entry not evicted on write")
	}
	if _, ok := data.Transients["new"]; !ok {
		t.Error("fresh entry missing")
	}
}

func TestCounters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "hits", time.Minute)
		if err != nil {
			t.Fatalf("Increment() error = %v", err)
		}
		if got != want {
			t.Errorf("Increment() = %d, want %d", got, want)
		}
	}

	count, err := s.GetCount(ctx, "hits")
	if err != nil {
		t.Fatalf("GetCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("GetCount() = %d, want 3", count)
	}

	// Missing counters read as zero
	count, err = s.GetCount(ctx, "nothing")
	if err != nil {
		t.Fatalf("GetCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("GetCount(missing) = %d, want 0", count)
	}

	if err := s.DeleteCounter(ctx, "hits"); err != nil {
		t.Fatalf("DeleteCounter() error = %v", err)
	}
	count, _ = s.GetCount(ctx, "hits")
	if count != 0 {
		t.Errorf("GetCount() after delete = %d, want 0", count)
	}
}

func TestCounterExpiredRestartsAtOne(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "bucket", -time.Second); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	got, err := s.Increment(ctx, "bucket", time.Minute)
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	if got != 1 {
		t.Errorf("Increment() after expiry = %d, want 1", got)
	}
}

func TestPurge(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SetOption(ctx, "key", "value"); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}
	if err := s.SetTransient(ctx, "code", "abc", time.Minute); err != nil {
		t.Fatalf("SetTransient() error = %v", err)
	}
	user := &domain.User{ID: "u1", Username: "alice", Active: true}
	if err := s.Users().Create(ctx, user); err != nil {
		t.Fatalf("Users().Create() error = %v", err)
	}

	if err := s.Purge(ctx); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}

	var value string
	if err := s.GetOption(ctx, "key", &value); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("option survived purge: %v", err)
	}
	if err := s.GetTransient(ctx, "code", &value); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("transient survived purge: %v", err)
	}

	// User records are not part of the gateway's state
	if _, err := s.Users().GetByID(ctx, "u1"); err != nil {
		t.Errorf("user did not survive purge: %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user := &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Active: true}
	if err := s.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Users().GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want alice", got.Username)
	}

	got, err = s.Users().GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("ID = %q, want u1", got.ID)
	}

	// Duplicate username rejected
	dup := &domain.User{ID: "u2", Username: "alice", Active: true}
	if err := s.Users().Create(ctx, dup); err == nil {
		t.Error("expected error creating duplicate username")
	}

	if _, err := s.Users().GetByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestContentRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	posts := []*domain.Post{
		{ID: "p1", Title: "Go Tips", Content: "Some go tips", Slug: "go-tips", Status: "publish", Type: "post", AuthorID: "u1", Tags: []string{"Go"}},
		{ID: "p2", Title: "Drafts", Content: "Not yet", Slug: "drafts", Status: "draft", Type: "post", AuthorID: "u1"},
		{ID: "p3", Title: "News", Content: "Today", Slug: "news", Status: "publish", Type: "post", AuthorID: "u2", Categories: []string{"updates"}},
		{ID: "pg1", Title: "About", Content: "About", Slug: "about", Status: "publish", Type: "page", AuthorID: "u1"},
	}
	for _, p := range posts {
		if err := s.Content().Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", p.ID, err)
		}
	}

	t.Run("get by slug checks type", func(t *testing.T) {
		got, err := s.Content().GetBySlug(ctx, "about", "page")
		if err != nil {
			t.Fatalf("GetBySlug() error = %v", err)
		}
		if got.ID != "pg1" {
			t.Errorf("ID = %q, want pg1", got.ID)
		}
		if _, err := s.Content().GetBySlug(ctx, "about", "post"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("search by type and status", func(t *testing.T) {
		results, err := s.Content().Search(ctx, store.ContentQuery{Type: "post", Status: "publish"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 2 {
			t.Errorf("len(results) = %d, want 2", len(results))
		}
	})

	t.Run("search by text", func(t *testing.T) {
		results, err := s.Content().Search(ctx, store.ContentQuery{Type: "post", Search: "go tips"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].ID != "p1" {
			t.Errorf("results = %v, want [p1]", results)
		}
	})

	t.Run("search by tag is case-insensitive", func(t *testing.T) {
		results, err := s.Content().Search(ctx, store.ContentQuery{Type: "post", Tag: "go"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].ID != "p1" {
			t.Errorf("results = %v, want [p1]", results)
		}
	})

	t.Run("search by author", func(t *testing.T) {
		results, err := s.Content().Search(ctx, store.ContentQuery{Type: "post", AuthorID: "u2"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].ID != "p3" {
			t.Errorf("results = %v, want [p3]", results)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		results, err := s.Content().Search(ctx, store.ContentQuery{Type: "post", Status: "publish", Limit: 1})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("len(results) = %d, want 1", len(results))
		}
		first := results[0].ID

		results, err = s.Content().Search(ctx, store.ContentQuery{Type: "post", Status: "publish", Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].ID == first {
			t.Errorf("offset did not advance: %v", results)
		}
	})
}
