// Package main provides a utility to seed test data for development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/domain"
	"github.com/agentgate/agentgate/internal/store/file"
	"github.com/agentgate/agentgate/internal/token"
)

func main() {
	dataDir := flag.String("data-dir", "./data", "Data directory")
	flag.Parse()

	// Initialize store
	st, err := file.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	// Create test user
	password := "password123"
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: hash,
		DisplayName:  "Test User",
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := st.Users().Create(ctx, user); err != nil {
		fmt.Printf("User may already exist: %v\n", err)
	} else {
		fmt.Printf("Created user: %s (password: %s)\n", user.Username, password)
	}

	// Register a test client
	tokens := token.NewService(st, st, "http://localhost:8080")
	creds, err := tokens.RegisterClient(ctx, "Test Agent", "http://localhost:3000/callback", user.ID)
	if err != nil {
		log.Fatalf("Failed to register client: %v", err)
	}
	fmt.Printf("Created client: %s\n", creds.ClientID)
	fmt.Printf("Client secret (shown once): %s\n", creds.ClientSecret)

	// Sample content
	posts := []*domain.Post{
		{
			ID:        uuid.New().String(),
			Title:     "Welcome",
			Content:   "First post on this site.",
			Excerpt:   "First post.",
			Slug:      "welcome",
			Status:    "publish",
			Type:      "post",
			AuthorID:  user.ID,
			Tags:      []string{"news"},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		{
			ID:         uuid.New().String(),
			Title:      "Release Notes",
			Content:    "Details about the latest release.",
			Slug:       "release-notes",
			Status:     "publish",
			Type:       "post",
			AuthorID:   user.ID,
			Categories: []string{"releases"},
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		},
		{
			ID:        uuid.New().String(),
			Title:     "About",
			Content:   "About this site.",
			Slug:      "about",
			Status:    "publish",
			Type:      "page",
			AuthorID:  user.ID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	for _, p := range posts {
		if err := st.Content().Create(ctx, p); err != nil {
			fmt.Printf("Content %q may already exist: %v\n", p.Slug, err)
		} else {
			fmt.Printf("Created %s: %s\n", p.Type, p.Slug)
		}
	}

	fmt.Println("\nSeed data created successfully!")
	fmt.Println("\nTest with:")
	fmt.Println("  1. Start server: go run ./cmd/gateway")
	fmt.Printf("  2. Direct login: curl -X POST http://localhost:8080/auth/login -d 'username=testuser&password=%s'\n", password)
	fmt.Printf("  3. Or browser flow: http://localhost:8080/oauth/authorize?client_id=%s&redirect_uri=http://localhost:3000/callback&response_type=code&scope=read&state=test123\n", creds.ClientID)

	os.Exit(0)
}
