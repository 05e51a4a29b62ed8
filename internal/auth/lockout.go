package auth

import (
	"sync"
	"time"
)

// LockoutService tracks failed login attempts per username and locks the
// account for a cooldown period once the threshold is hit. State is
// in-memory and per-instance; the request-quota limiter handles shared
// throttling.
type LockoutService struct {
	maxAttempts int
	duration    time.Duration
	attempts    map[string]*lockoutEntry
	mu          sync.RWMutex
}

type lockoutEntry struct {
	count    int
	lockedAt time.Time
}

// NewLockoutService creates a new LockoutService.
// maxAttempts: number of failed attempts before lockout (0 = disabled)
// duration: how long the account stays locked
func NewLockoutService(maxAttempts int, duration time.Duration) *LockoutService {
	return &LockoutService{
		maxAttempts: maxAttempts,
		duration:    duration,
		attempts:    make(map[string]*lockoutEntry),
	}
}

// IsLocked checks if an account is currently locked.
func (s *LockoutService) IsLocked(username string) bool {
	if s.maxAttempts <= 0 {
		return false
	}

	s.mu.RLock()
	entry, exists := s.attempts[username]
	s.mu.RUnlock()

	if !exists {
		return false
	}

	return !entry.lockedAt.IsZero() && time.Since(entry.lockedAt) < s.duration
}

// RecordFailure records a failed login attempt and returns true if the
// account is now locked.
func (s *LockoutService) RecordFailure(username string) bool {
	if s.maxAttempts <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.attempts[username]
	if !exists {
		entry = &lockoutEntry{}
		s.attempts[username] = entry
	}

	// Expired lock resets the counter
	if !entry.lockedAt.IsZero() && time.Since(entry.lockedAt) >= s.duration {
		entry.count = 0
		entry.lockedAt = time.Time{}
	}

	entry.count++

	if entry.count >= s.maxAttempts {
		entry.lockedAt = time.Now()
		return true
	}

	return false
}

// RecordSuccess clears failed attempts for an account after successful login.
func (s *LockoutService) RecordSuccess(username string) {
	if s.maxAttempts <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, username)
}

// LockoutRemaining returns the time until the account is unlocked, zero if
// not locked.
func (s *LockoutService) LockoutRemaining(username string) time.Duration {
	if s.maxAttempts <= 0 {
		return 0
	}

	s.mu.RLock()
	entry, exists := s.attempts[username]
	s.mu.RUnlock()

	if !exists || entry.lockedAt.IsZero() {
		return 0
	}

	remaining := s.duration - time.Since(entry.lockedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
