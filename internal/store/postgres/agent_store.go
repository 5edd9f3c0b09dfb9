package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

// AgentStore implements store.AgentStore using PostgreSQL.
type AgentStore struct {
	pool *pgxpool.Pool
}

// NewAgentStore creates a new PostgreSQL-backed agent store.
func NewAgentStore(pool *pgxpool.Pool) *AgentStore {
	return &AgentStore{
		pool: pool,
	}
}

const agentColumns = `
	agent_id, tenant_id, owner_user_id, device_name, os_version,
	agent_version, status, last_seen_at, tags, created_at, updated_at
`

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var a models.Agent
	err := row.Scan(
		&a.AgentID,
		&a.TenantID,
		&a.OwnerUserID,
		&a.DeviceName,
		&a.OSVersion,
		&a.AgentVersion,
		&a.Status,
		&a.LastSeenAt,
		&a.Tags,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create registers a new agent in the database.
func (s *AgentStore) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (
			agent_id, tenant_id, owner_user_id, device_name, os_version,
			agent_version, status, last_seen_at, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		agent.AgentID,
		agent.TenantID,
		agent.OwnerUserID,
		agent.DeviceName,
		agent.OSVersion,
		agent.AgentVersion,
		agent.Status,
		agent.LastSeenAt,
		agent.Tags,
		agent.CreatedAt,
		agent.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	log.Debug().
		Str("agent_id", agent.AgentID.String()).
		Str("tenant_id", agent.TenantID.String()).
		Str("device_name", agent.DeviceName).
		Msg("Created agent")

	return nil
}

// Get retrieves an agent by ID regardless of tenant.
func (s *AgentStore) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE agent_id = $1
	`

	a, err := scanAgent(s.pool.QueryRow(ctx, query, agentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return a, nil
}

// List returns agents matching the scope, newest first.
func (s *AgentStore) List(ctx context.Context, scope policy.Scope) ([]*models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID}

	if scope.OwnerUserID != nil {
		query += ` AND owner_user_id = $2`
		args = append(args, *scope.OwnerUserID)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}

	return agents, nil
}

// Update updates an existing agent.
func (s *AgentStore) Update(ctx context.Context, agent *models.Agent) error {
	query := `
		UPDATE agents
		SET device_name = $2, os_version = $3, agent_version = $4,
			status = $5, last_seen_at = $6, tags = $7, updated_at = $8
		WHERE agent_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		agent.AgentID,
		agent.DeviceName,
		agent.OSVersion,
		agent.AgentVersion,
		agent.Status,
		agent.LastSeenAt,
		agent.Tags,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrAgentNotFound
	}

	return nil
}

// RecentEvents returns the most recent events for an agent, newest first.
func (s *AgentStore) RecentEvents(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.AgentEvent, error) {
	query := `
		SELECT event_id, agent_id, event_type, message, created_at
		FROM agent_events
		WHERE agent_id = $1
		ORDER BY created_at DESC, event_id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent events: %w", err)
	}
	defer rows.Close()

	var events []*models.AgentEvent
	for rows.Next() {
		var e models.AgentEvent
		if err := rows.Scan(&e.EventID, &e.AgentID, &e.EventType, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent event: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agent events: %w", err)
	}

	return events, nil
}

// AppendEvent records an event reported by an agent. The event ID is
// assigned by the database.
func (s *AgentStore) AppendEvent(ctx context.Context, event *models.AgentEvent) error {
	query := `
		INSERT INTO agent_events (agent_id, event_type, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING event_id
	`

	err := s.pool.QueryRow(ctx, query,
		event.AgentID,
		event.EventType,
		event.Message,
		event.CreatedAt,
	).Scan(&event.EventID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrAgentNotFound
		}
		return fmt.Errorf("failed to append agent event: %w", err)
	}

	return nil
}
