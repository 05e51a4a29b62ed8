package auth

import (
	"context"
	"testing"
)

func TestBlacklistEmpty(t *testing.T) {
	b := NewBlacklist(newMemOptions())

	// A missing list means nobody is excluded
	blocked, err := b.IsBlacklisted(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IsBlacklisted() error = %v", err)
	}
	if blocked {
		t.Error("no list should mean not blacklisted")
	}
}

func TestBlacklistAddRemove(t *testing.T) {
	b := NewBlacklist(newMemOptions())
	ctx := context.Background()

	if err := b.Add(ctx, "user-1"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	blocked, err := b.IsBlacklisted(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsBlacklisted() error = %v", err)
	}
	if !blocked {
		t.Error("user-1 should be blacklisted")
	}

	blocked, _ = b.IsBlacklisted(ctx, "user-2")
	if blocked {
		t.Error("user-2 should not be blacklisted")
	}

	if err := b.Remove(ctx, "user-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	blocked, _ = b.IsBlacklisted(ctx, "user-1")
	if blocked {
		t.Error("user-1 should no longer be blacklisted")
	}
}

func TestBlacklistIdempotent(t *testing.T) {
	b := NewBlacklist(newMemOptions())
	ctx := context.Background()

	if err := b.Add(ctx, "user-1"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := b.Add(ctx, "user-1"); err != nil {
		t.Fatalf("second Add() error = %v", err)
	}
	if err := b.Remove(ctx, "user-2"); err != nil {
		t.Fatalf("Remove() of unlisted user error = %v", err)
	}
}

func TestBlacklistReadsFreshList(t *testing.T) {
	options := newMemOptions()
	b := NewBlacklist(options)
	ctx := context.Background()

	blocked, _ := b.IsBlacklisted(ctx, "user-1")
	if blocked {
		t.Fatal("should not be blacklisted yet")
	}

	// An external writer updates the list; the very next check must see it
	if err := options.SetOption(ctx, BlacklistOptionKey, []string{"user-1"}); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}
	blocked, _ = b.IsBlacklisted(ctx, "user-1")
	if !blocked {
		t.Error("external list update not visible")
	}
}
