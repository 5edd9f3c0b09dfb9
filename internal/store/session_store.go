package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore defines the interface for session storage operations.
// Sessions are server-side; the browser only ever holds an opaque session ID.
type SessionStore interface {
	// Create creates a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if it doesn't exist and ErrSessionExpired
	// if it exists but has passed its expiry.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// UpdateLastUsed updates the last_used_at timestamp for a session.
	UpdateLastUsed(ctx context.Context, sessionID uuid.UUID) error

	// Delete deletes a session by ID (logout).
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteByPrincipal deletes all sessions for a principal (logout everywhere).
	// Returns the number of sessions removed.
	DeleteByPrincipal(ctx context.Context, principalID uuid.UUID) (int, error)

	// DeleteExpired deletes all expired sessions (cleanup job).
	// Returns the number of sessions removed.
	DeleteExpired(ctx context.Context) (int, error)
}
