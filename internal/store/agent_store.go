package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

// Sentinel errors for agent store operations
var (
	ErrAgentNotFound = errors.New("agent not found")
)

// AgentStore defines the interface for device agent storage operations.
type AgentStore interface {
	// Create registers a new agent.
	Create(ctx context.Context, agent *models.Agent) error

	// Get retrieves an agent by ID regardless of tenant.
	// Returns ErrAgentNotFound if the agent doesn't exist.
	Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)

	// List returns agents matching the scope, newest first.
	List(ctx context.Context, scope policy.Scope) ([]*models.Agent, error)

	// Update updates an existing agent.
	// Returns ErrAgentNotFound if the agent doesn't exist.
	Update(ctx context.Context, agent *models.Agent) error

	// RecentEvents returns the most recent events for an agent, newest
	// first, up to limit.
	RecentEvents(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.AgentEvent, error)

	// AppendEvent records an event reported by an agent.
	AppendEvent(ctx context.Context, event *models.AgentEvent) error
}
