package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

// CatalogStore implements store.CatalogStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type CatalogStore struct {
	mu sync.RWMutex

	items    map[uuid.UUID]*models.CatalogItem
	requests map[uuid.UUID]*models.CatalogRequest
}

// NewCatalogStore creates a new in-memory catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		items:    make(map[uuid.UUID]*models.CatalogItem),
		requests: make(map[uuid.UUID]*models.CatalogRequest),
	}
}

// CreateItem creates a new catalog item in memory.
func (s *CatalogStore) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *item
	s.items[item.ItemID] = &clone

	return nil
}

// ListItems returns catalog items matching the scope, newest first.
// Catalog items are tenant-wide: the scope never carries an owner
// constraint for them.
func (s *CatalogStore) ListItems(ctx context.Context, scope policy.Scope, activeOnly bool) ([]*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.CatalogItem
	for _, item := range s.items {
		if item.TenantID != scope.TenantID {
			continue
		}
		if activeOnly && !item.Active {
			continue
		}
		clone := *item
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// GetItem retrieves a catalog item by ID regardless of tenant.
func (s *CatalogStore) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[itemID]
	if !exists {
		return nil, store.ErrCatalogItemNotFound
	}

	clone := *item
	return &clone, nil
}

// CreateRequest creates a new catalog request in memory.
func (s *CatalogStore) CreateRequest(ctx context.Context, request *models.CatalogRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *request
	s.requests[request.RequestID] = &clone

	return nil
}

// ListRequests returns catalog requests matching the scope, newest first.
func (s *CatalogStore) ListRequests(ctx context.Context, scope policy.Scope, limit int) ([]*models.CatalogRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.CatalogRequest
	for _, r := range s.requests {
		if !scope.Matches(r.TenantID, r.RequesterUserID) {
			continue
		}
		clone := *r
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// GetRequest retrieves a catalog request by ID regardless of tenant.
func (s *CatalogStore) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.CatalogRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, exists := s.requests[requestID]
	if !exists {
		return nil, store.ErrCatalogRequestNotFound
	}

	clone := *request
	return &clone, nil
}

// UpdateRequest updates an existing catalog request.
func (s *CatalogStore) UpdateRequest(ctx context.Context, request *models.CatalogRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[request.RequestID]; !exists {
		return store.ErrCatalogRequestNotFound
	}

	request.UpdatedAt = time.Now()
	clone := *request
	s.requests[request.RequestID] = &clone

	return nil
}
