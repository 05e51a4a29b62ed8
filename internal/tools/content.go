package tools

import (
	"context"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/domain"
	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/store"
)

// ContentModuleName is the registry key of the built-in content module and
// the default for bare tool names.
const ContentModuleName = "content"

// NewContentModule builds the read-only content module: post/page search and
// lookup plus caller introspection.
func NewContentModule(content store.ContentRepository, users store.UserRepository) *Module {
	c := &contentModule{content: content, users: users}
	m := NewModule(ContentModuleName)

	m.Register("searchPosts", "Search posts with filters", Schema{
		Type: "object",
		Properties: map[string]Property{
			"search":   {Type: "string", Description: "Search query"},
			"category": {Type: "string", Description: "Category to filter by"},
			"tag":      {Type: "string", Description: "Tag to filter by"},
			"author":   {Type: "string", Description: "Author ID to filter by"},
			"status":   {Type: "string", Description: "Post status", Default: "publish"},
			"limit":    {Type: "integer", Description: "Maximum number of posts to return", Default: 10},
			"offset":   {Type: "integer", Description: "Number of posts to skip", Default: 0},
		},
	}, c.searchPosts)

	m.Register("getPost", "Get a single post by ID or slug", Schema{
		Type:     "object",
		Required: []string{"identifier"},
		Properties: map[string]Property{
			"identifier": {Type: "string", Description: "Post ID or slug"},
		},
	}, c.getPost)

	m.Register("searchPages", "Search pages", Schema{
		Type: "object",
		Properties: map[string]Property{
			"search": {Type: "string", Description: "Search query"},
			"parent": {Type: "string", Description: "Parent page ID"},
			"status": {Type: "string", Description: "Page status", Default: "publish"},
			"limit":  {Type: "integer", Description: "Maximum number of pages", Default: 10},
		},
	}, c.searchPages)

	m.Register("getPage", "Get a single page by ID or slug", Schema{
		Type:     "object",
		Required: []string{"identifier"},
		Properties: map[string]Property{
			"identifier": {Type: "string", Description: "Page ID or slug"},
		},
	}, c.getPage)

	m.Register("getCurrentUser", "Get information about the current authenticated user", Schema{
		Type:       "object",
		Properties: map[string]Property{},
	}, c.getCurrentUser)

	return m
}

type contentModule struct {
	content store.ContentRepository
	users   store.UserRepository
}

func (c *contentModule) searchPosts(ctx context.Context, params map[string]any) (*Result, error) {
	q := store.ContentQuery{
		Type:     "post",
		Status:   stringParam(params, "status"),
		Search:   stringParam(params, "search"),
		Category: stringParam(params, "category"),
		Tag:      stringParam(params, "tag"),
		AuthorID: stringParam(params, "author"),
		Limit:    intParam(params, "limit"),
		Offset:   intParam(params, "offset"),
	}

	posts, err := c.content.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return OK([]*domain.Post{}, "No posts found"), nil
	}
	return OK(posts, ""), nil
}

func (c *contentModule) getPost(ctx context.Context, params map[string]any) (*Result, error) {
	return c.lookup(ctx, stringParam(params, "identifier"), "post")
}

func (c *contentModule) searchPages(ctx context.Context, params map[string]any) (*Result, error) {
	q := store.ContentQuery{
		Type:     "page",
		Status:   stringParam(params, "status"),
		Search:   stringParam(params, "search"),
		ParentID: stringParam(params, "parent"),
		Limit:    intParam(params, "limit"),
	}

	pages, err := c.content.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return OK([]*domain.Post{}, "No pages found"), nil
	}
	return OK(pages, ""), nil
}

func (c *contentModule) getPage(ctx context.Context, params map[string]any) (*Result, error) {
	return c.lookup(ctx, stringParam(params, "identifier"), "page")
}

// lookup resolves an identifier as an ID first, then as a slug.
func (c *contentModule) lookup(ctx context.Context, identifier, postType string) (*Result, error) {
	post, err := c.content.GetByID(ctx, identifier)
	if err == store.ErrNotFound {
		post, err = c.content.GetBySlug(ctx, identifier, postType)
	}
	if err == store.ErrNotFound || (err == nil && post.Type != postType) {
		return nil, gwerrors.New(gwerrors.CodeToolNotFound, postType+" not found: "+identifier)
	}
	if err != nil {
		return nil, err
	}
	return OK(post, ""), nil
}

func (c *contentModule) getCurrentUser(ctx context.Context, params map[string]any) (*Result, error) {
	data, ok := auth.TokenDataFrom(ctx)
	if !ok {
		return nil, gwerrors.New(gwerrors.CodeNoToken, "no authenticated user")
	}

	user, err := c.users.GetByID(ctx, data.UserID)
	if err == store.ErrNotFound {
		return nil, gwerrors.New(gwerrors.CodeToolNotFound, "user not found: "+data.UserID)
	}
	if err != nil {
		return nil, err
	}

	return OK(map[string]any{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"roles":        user.Roles,
		"scopes":       data.Scopes,
	}, ""), nil
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
