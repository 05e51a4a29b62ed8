package auth

import (
	"context"

	"github.com/agentgate/agentgate/internal/store"
)

// BlacklistOptionKey is the durable option holding the excluded user IDs.
const BlacklistOptionKey = "blacklisted_users"

// Blacklist checks user identifiers against the externally-owned exclusion
// list. The list is read from the durable store on every call so a
// mid-session revocation takes effect on the very next request.
type Blacklist struct {
	options store.OptionRepository
}

// NewBlacklist creates a Blacklist backed by the given option store.
func NewBlacklist(options store.OptionRepository) *Blacklist {
	return &Blacklist{options: options}
}

// IsBlacklisted reports whether the user is excluded from all access.
// A missing list means nobody is excluded.
func (b *Blacklist) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	users, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range users {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// Add puts a user on the blacklist. Adding an already-listed user is a no-op.
func (b *Blacklist) Add(ctx context.Context, userID string) error {
	users, err := b.load(ctx)
	if err != nil {
		return err
	}
	for _, id := range users {
		if id == userID {
			return nil
		}
	}
	return b.options.SetOption(ctx, BlacklistOptionKey, append(users, userID))
}

// Remove takes a user off the blacklist. Removing an unlisted user is a no-op.
func (b *Blacklist) Remove(ctx context.Context, userID string) error {
	users, err := b.load(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, id := range users {
		if id != userID {
			kept = append(kept, id)
		}
	}
	return b.options.SetOption(ctx, BlacklistOptionKey, kept)
}

func (b *Blacklist) load(ctx context.Context) ([]string, error) {
	var users []string
	err := b.options.GetOption(ctx, BlacklistOptionKey, &users)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return users, nil
}
