package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

// Sentinel errors for catalog store operations
var (
	ErrCatalogItemNotFound    = errors.New("catalog item not found")
	ErrCatalogRequestNotFound = errors.New("catalog request not found")
)

// CatalogStore defines the interface for the self-service store: catalog
// items offered to a tenant and the requests its members raise for them.
type CatalogStore interface {
	// CreateItem creates a new catalog item.
	CreateItem(ctx context.Context, item *models.CatalogItem) error

	// ListItems returns catalog items matching the scope, newest first.
	// When activeOnly is set, inactive items are excluded.
	ListItems(ctx context.Context, scope policy.Scope, activeOnly bool) ([]*models.CatalogItem, error)

	// GetItem retrieves a catalog item by ID regardless of tenant.
	// Returns ErrCatalogItemNotFound if the item doesn't exist.
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.CatalogItem, error)

	// CreateRequest creates a new catalog request.
	CreateRequest(ctx context.Context, request *models.CatalogRequest) error

	// ListRequests returns catalog requests matching the scope, newest
	// first, up to limit (0 = no limit).
	ListRequests(ctx context.Context, scope policy.Scope, limit int) ([]*models.CatalogRequest, error)

	// GetRequest retrieves a catalog request by ID regardless of tenant.
	// Returns ErrCatalogRequestNotFound if the request doesn't exist.
	GetRequest(ctx context.Context, requestID uuid.UUID) (*models.CatalogRequest, error)

	// UpdateRequest updates an existing catalog request.
	// Returns ErrCatalogRequestNotFound if the request doesn't exist.
	UpdateRequest(ctx context.Context, request *models.CatalogRequest) error
}
