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

// TicketStore implements store.TicketStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type TicketStore struct {
	mu sync.RWMutex

	tickets map[uuid.UUID]*models.Ticket // ticket_id -> Ticket
}

// NewTicketStore creates a new in-memory ticket store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[uuid.UUID]*models.Ticket),
	}
}

// Create creates a new ticket in memory.
func (s *TicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *ticket
	s.tickets[ticket.TicketID] = &clone

	return nil
}

// Get retrieves a ticket by ID regardless of tenant.
func (s *TicketStore) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, exists := s.tickets[ticketID]
	if !exists {
		return nil, store.ErrTicketNotFound
	}

	clone := *ticket
	return &clone, nil
}

// List returns tickets matching the scope, newest first.
func (s *TicketStore) List(ctx context.Context, scope policy.Scope, limit int) ([]*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Ticket
	for _, t := range s.tickets {
		if !scope.Matches(t.TenantID, t.RequesterUserID) {
			continue
		}
		clone := *t
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

// Update updates an existing ticket.
func (s *TicketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[ticket.TicketID]; !exists {
		return store.ErrTicketNotFound
	}

	ticket.UpdatedAt = time.Now()
	clone := *ticket
	s.tickets[ticket.TicketID] = &clone

	return nil
}
