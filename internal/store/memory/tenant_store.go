package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/store"
)

// TenantStore implements store.TenantStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type TenantStore struct {
	mu sync.RWMutex

	tenants map[uuid.UUID]*models.Tenant // tenant_id -> Tenant
}

// NewTenantStore creates a new in-memory tenant store.
func NewTenantStore() *TenantStore {
	return &TenantStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
	}
}

// Create creates a new tenant in memory.
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenant.TenantID]; exists {
		return store.ErrTenantAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *tenant
	s.tenants[tenant.TenantID] = &clone

	return nil
}

// Get retrieves a tenant by ID.
func (s *TenantStore) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, exists := s.tenants[tenantID]
	if !exists {
		return nil, store.ErrTenantNotFound
	}

	clone := *tenant
	return &clone, nil
}

// Update updates an existing tenant.
func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenant.TenantID]; !exists {
		return store.ErrTenantNotFound
	}

	tenant.UpdatedAt = time.Now()
	clone := *tenant
	s.tenants[tenant.TenantID] = &clone

	return nil
}
