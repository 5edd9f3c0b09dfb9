package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
)

// Sentinel errors for principal store operations
var (
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrPrincipalAlreadyExists = errors.New("principal already exists")
)

// PrincipalStore defines the interface for principal (user account) storage
// operations. Principals are the identity source the session resolver builds
// its per-request Principal from.
type PrincipalStore interface {
	// Create creates a new principal.
	// Returns ErrPrincipalAlreadyExists if the ID or email is already taken.
	Create(ctx context.Context, principal *models.Principal) error

	// Get retrieves a non-deleted principal by ID.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error)

	// GetByEmail retrieves a non-deleted principal by email (lowercased).
	// Returns ErrPrincipalNotFound if no principal has that email.
	GetByEmail(ctx context.Context, email string) (*models.Principal, error)

	// Update updates an existing principal.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	Update(ctx context.Context, principal *models.Principal) error

	// Delete soft-deletes a principal.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	Delete(ctx context.Context, principalID uuid.UUID) error

	// ListByTenant returns all non-deleted principals for a tenant.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Principal, error)
}
