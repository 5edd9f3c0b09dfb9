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

// fingerprintKey dedupes stored cards within a tenant.
type fingerprintKey struct {
	tenantID    uuid.UUID
	fingerprint string
}

// PaymentMethodStore implements store.PaymentMethodStore using in-memory
// storage. This implementation is for testing and demo mode - data is lost
// on restart.
type PaymentMethodStore struct {
	mu sync.RWMutex

	methods       map[uuid.UUID]*models.PaymentMethod
	byFingerprint map[fingerprintKey]uuid.UUID
}

// NewPaymentMethodStore creates a new in-memory payment method store.
func NewPaymentMethodStore() *PaymentMethodStore {
	return &PaymentMethodStore{
		methods:       make(map[uuid.UUID]*models.PaymentMethod),
		byFingerprint: make(map[fingerprintKey]uuid.UUID),
	}
}

// Create stores a new payment method, enforcing per-tenant fingerprint
// uniqueness.
func (s *PaymentMethodStore) Create(ctx context.Context, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fingerprintKey{tenantID: pm.TenantID, fingerprint: pm.Fingerprint}
	if _, exists := s.byFingerprint[key]; exists {
		return store.ErrPaymentMethodExists
	}

	clone := *pm
	s.methods[pm.PaymentMethodID] = &clone
	s.byFingerprint[key] = pm.PaymentMethodID

	return nil
}

// Get retrieves a payment method by ID regardless of tenant.
func (s *PaymentMethodStore) Get(ctx context.Context, paymentMethodID uuid.UUID) (*models.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pm, exists := s.methods[paymentMethodID]
	if !exists {
		return nil, store.ErrPaymentMethodNotFound
	}

	clone := *pm
	return &clone, nil
}

// List returns payment methods matching the scope, newest first.
func (s *PaymentMethodStore) List(ctx context.Context, scope policy.Scope) ([]*models.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.PaymentMethod
	for _, pm := range s.methods {
		if !scope.Matches(pm.TenantID, pm.OwnerUserID) {
			continue
		}
		clone := *pm
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Update updates an existing payment method.
func (s *PaymentMethodStore) Update(ctx context.Context, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.methods[pm.PaymentMethodID]; !exists {
		return store.ErrPaymentMethodNotFound
	}

	pm.UpdatedAt = time.Now()
	clone := *pm
	s.methods[pm.PaymentMethodID] = &clone

	return nil
}
