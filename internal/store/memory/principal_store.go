package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/store"
)

// PrincipalStore implements store.PrincipalStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type PrincipalStore struct {
	mu sync.RWMutex

	principals        map[uuid.UUID]*models.Principal // principal_id -> Principal
	principalsByEmail map[string]*models.Principal    // lowercased email -> Principal
}

// NewPrincipalStore creates a new in-memory principal store.
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{
		principals:        make(map[uuid.UUID]*models.Principal),
		principalsByEmail: make(map[string]*models.Principal),
	}
}

// Create creates a new principal in memory.
func (s *PrincipalStore) Create(ctx context.Context, principal *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.principals[principal.PrincipalID]; exists {
		return store.ErrPrincipalAlreadyExists
	}

	email := strings.ToLower(principal.Email)
	if email != "" {
		if _, exists := s.principalsByEmail[email]; exists {
			return store.ErrPrincipalAlreadyExists
		}
	}

	// Clone to avoid external modifications
	clone := *principal
	s.principals[principal.PrincipalID] = &clone
	if email != "" {
		s.principalsByEmail[email] = &clone
	}

	return nil
}

// Get retrieves a non-deleted principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	principal, exists := s.principals[principalID]
	if !exists || principal.DeletedAt != nil {
		return nil, store.ErrPrincipalNotFound
	}

	clone := *principal
	return &clone, nil
}

// GetByEmail retrieves a non-deleted principal by email.
func (s *PrincipalStore) GetByEmail(ctx context.Context, email string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	principal, exists := s.principalsByEmail[strings.ToLower(email)]
	if !exists || principal.DeletedAt != nil {
		return nil, store.ErrPrincipalNotFound
	}

	clone := *principal
	return &clone, nil
}

// Update updates an existing principal.
func (s *PrincipalStore) Update(ctx context.Context, principal *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.principals[principal.PrincipalID]
	if !exists {
		return store.ErrPrincipalNotFound
	}

	principal.UpdatedAt = time.Now()

	// Reindex on email change
	oldEmail := strings.ToLower(existing.Email)
	newEmail := strings.ToLower(principal.Email)
	if oldEmail != "" && oldEmail != newEmail {
		delete(s.principalsByEmail, oldEmail)
	}

	clone := *principal
	s.principals[principal.PrincipalID] = &clone
	if newEmail != "" {
		s.principalsByEmail[newEmail] = &clone
	}

	return nil
}

// Delete soft-deletes a principal by setting deleted_at.
func (s *PrincipalStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, exists := s.principals[principalID]
	if !exists || principal.DeletedAt != nil {
		return store.ErrPrincipalNotFound
	}

	now := time.Now()
	principal.DeletedAt = &now
	principal.UpdatedAt = now

	return nil
}

// ListByTenant returns all non-deleted principals for a tenant.
func (s *PrincipalStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Principal
	for _, p := range s.principals {
		if p.TenantID != tenantID || p.DeletedAt != nil {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}

	return result, nil
}
