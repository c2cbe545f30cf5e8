package domain

import (
	"context"
	"time"
)

// Session is server-side state keyed by a random, unguessable identifier.
// UserID is set once at login and never reassigned; a new login creates a
// new session instead of mutating the old one.
type Session struct {
	ID           string
	UserID       int64
	CreatedAt    time.Time
	LastAccessAt time.Time
}

// SessionStore is the external key-value session collaborator.
//
// At most one live session per user is authoritative: Create evicts any
// previous session belonging to the same user before issuing the new one.
// Sessions expire after an inactivity timeout; Touch refreshes it.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (*Session, error)
	// Get returns ErrNotFound for absent or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string) error
	// Invalidate is idempotent: removing an absent session is not an error.
	Invalidate(ctx context.Context, id string) error
}

// Principal is the trusted identity attached to a request after the session
// gate resolved it. It is never constructed from client-supplied data.
type Principal struct {
	UserID int64
	Roles  []string
}

const RoleUser = "USER"
