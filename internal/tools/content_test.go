package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

// Mock content repository
type mockContentRepository struct {
	posts []*domain.Post
}

func (m *mockContentRepository) Create(ctx context.Context, post *domain.Post) error {
	m.posts = append(m.posts, post)
	return nil
}

func (m *mockContentRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockContentRepository) GetBySlug(ctx context.Context, slug, postType string) (*domain.Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug && p.Type == postType {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockContentRepository) Search(ctx context.Context, q store.ContentQuery) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, p := range m.posts {
		if q.Type != "" && p.Type != q.Type {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, p)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Mock user repository
type mockUserRepository struct {
	users map[string]*domain.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func setupContentModule() (*Dispatcher, *mockContentRepository, *mockUserRepository) {
	content := &mockContentRepository{
		posts: []*domain.Post{
			{ID: "p1", Title: "Hello World", Slug: "hello-world", Status: "publish", Type: "post"},
			{ID: "p2", Title: "Draft Post", Slug: "draft-post", Status: "draft", Type: "post"},
			{ID: "pg1", Title: "About", Slug: "about", Status: "publish", Type: "page"},
		},
	}
	users := &mockUserRepository{
		users: map[string]*domain.User{
			"user-1": {ID: "user-1", Username: "alice", Email: "alice@example.com", Active: true},
		},
	}

	d := NewDispatcher(ContentModuleName)
	d.RegisterModule(NewContentModule(content, users))
	return d, content, users
}

func TestSearchPostsDefaults(t *testing.T) {
	d, _, _ := setupContentModule()

	result, err := d.Dispatch(context.Background(), "searchPosts", map[string]any{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// Default status filters out the draft, default type filters the page
	posts, ok := result.Data.([]*domain.Post)
	if !ok {
		t.Fatalf("Data is %T, want []*domain.Post", result.Data)
	}
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Errorf("posts = %v, want [p1]", posts)
	}
}

func TestSearchPostsEmptyResult(t *testing.T) {
	d, _, _ := setupContentModule()

	result, err := d.Dispatch(context.Background(), "searchPosts", map[string]any{"search": "nonexistent"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !result.Success {
		t.Error("empty result must still be a success")
	}
	if result.Message != "No posts found" {
		t.Errorf("Message = %q, want %q", result.Message, "No posts found")
	}
}

func TestGetPostByIDAndSlug(t *testing.T) {
	d, _, _ := setupContentModule()
	ctx := context.Background()

	for _, identifier := range []string{"p1", "hello-world"} {
		result, err := d.Dispatch(ctx, "getPost", map[string]any{"identifier": identifier})
		if err != nil {
			t.Fatalf("Dispatch(getPost, %q) error = %v", identifier, err)
		}
		post := result.Data.(*domain.Post)
		if post.ID != "p1" {
			t.Errorf("post.ID = %q, want p1", post.ID)
		}
	}
}

func TestGetPostRejectsPage(t *testing.T) {
	d, _, _ := setupContentModule()

	// A page ID must not resolve through getPost
	_, err := d.Dispatch(context.Background(), "getPost", map[string]any{"identifier": "pg1"})
	if !gwerrors.IsCode(err, gwerrors.CodeToolNotFound) {
		t.Errorf("error = %v, want tool_not_found", err)
	}
}

func TestGetPageBySlug(t *testing.T) {
	d, _, _ := setupContentModule()

	result, err := d.Dispatch(context.Background(), "getPage", map[string]any{"identifier": "about"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	page := result.Data.(*domain.Post)
	if page.ID != "pg1" {
		t.Errorf("page.ID = %q, want pg1", page.ID)
	}
}

func TestGetCurrentUser(t *testing.T) {
	d, _, _ := setupContentModule()

	ctx := auth.WithTokenData(context.Background(), &domain.TokenData{
		UserID:   "user-1",
		ClientID: "client-1",
		Scopes:   []string{"read"},
	})

	result, err := d.Dispatch(ctx, "getCurrentUser", map[string]any{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	data := result.Data.(map[string]any)
	if data["username"] != "alice" {
		t.Errorf("username = %v, want alice", data["username"])
	}
}

func TestGetCurrentUserWithoutToken(t *testing.T) {
	d, _, _ := setupContentModule()

	_, err := d.Dispatch(context.Background(), "getCurrentUser", map[string]any{})
	if !gwerrors.IsCode(err, gwerrors.CodeNoToken) {
		t.Errorf("error = %v, want no_token", err)
	}
}
