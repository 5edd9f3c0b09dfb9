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

// AgentStore implements store.AgentStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type AgentStore struct {
	mu sync.RWMutex

	agents        map[uuid.UUID]*models.Agent        // agent_id -> Agent
	eventsByAgent map[uuid.UUID][]*models.AgentEvent // agent_id -> events, append order
	nextEventID   int64
}

// NewAgentStore creates a new in-memory agent store.
func NewAgentStore() *AgentStore {
	return &AgentStore{
		agents:        make(map[uuid.UUID]*models.Agent),
		eventsByAgent: make(map[uuid.UUID][]*models.AgentEvent),
		nextEventID:   1,
	}
}

// Create registers a new agent in memory.
func (s *AgentStore) Create(ctx context.Context, agent *models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *agent
	s.agents[agent.AgentID] = &clone

	return nil
}

// Get retrieves an agent by ID regardless of tenant.
func (s *AgentStore) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, exists := s.agents[agentID]
	if !exists {
		return nil, store.ErrAgentNotFound
	}

	clone := *agent
	return &clone, nil
}

// List returns agents matching the scope, newest first.
func (s *AgentStore) List(ctx context.Context, scope policy.Scope) ([]*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Agent
	for _, a := range s.agents {
		if !scope.Matches(a.TenantID, a.OwnerUserID) {
			continue
		}
		clone := *a
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Update updates an existing agent.
func (s *AgentStore) Update(ctx context.Context, agent *models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.AgentID]; !exists {
		return store.ErrAgentNotFound
	}

	agent.UpdatedAt = time.Now()
	clone := *agent
	s.agents[agent.AgentID] = &clone

	return nil
}

// RecentEvents returns the most recent events for an agent, newest first.
func (s *AgentStore) RecentEvents(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.AgentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.eventsByAgent[agentID]

	var result []*models.AgentEvent
	for i := len(events) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		clone := *events[i]
		result = append(result, &clone)
	}

	return result, nil
}

// AppendEvent records an event reported by an agent.
func (s *AgentStore) AppendEvent(ctx context.Context, event *models.AgentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *event
	clone.EventID = s.nextEventID
	s.nextEventID++

	s.eventsByAgent[event.AgentID] = append(s.eventsByAgent[event.AgentID], &clone)

	return nil
}
