package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
)

// Sentinel errors for tenant store operations
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant already exists")
)

// TenantStore defines the interface for tenant storage operations.
// Tenants are the unit of data isolation: every owned resource row carries
// exactly one tenant ID.
type TenantStore interface {
	// Create creates a new tenant in the store.
	// Returns ErrTenantAlreadyExists if a tenant with the same ID already exists.
	Create(ctx context.Context, tenant *models.Tenant) error

	// Get retrieves a tenant by ID.
	// Returns ErrTenantNotFound if the tenant doesn't exist.
	Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)

	// Update updates an existing tenant.
	// Returns ErrTenantNotFound if the tenant doesn't exist.
	Update(ctx context.Context, tenant *models.Tenant) error
}
