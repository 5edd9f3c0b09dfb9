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

// TicketStore implements store.TicketStore using PostgreSQL.
// List applies the scope predicate in the WHERE clause so out-of-scope rows
// never leave the database.
type TicketStore struct {
	pool *pgxpool.Pool
}

// NewTicketStore creates a new PostgreSQL-backed ticket store.
func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{
		pool: pool,
	}
}

const ticketColumns = `
	ticket_id, tenant_id, title, description, status, priority,
	requester_user_id, assignee_user_id, source, created_at, updated_at
`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.TicketID,
		&t.TenantID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.RequesterUserID,
		&t.AssigneeUserID,
		&t.Source,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new ticket in the database.
func (s *TicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			ticket_id, tenant_id, title, description, status, priority,
			requester_user_id, assignee_user_id, source, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		ticket.TicketID,
		ticket.TenantID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.RequesterUserID,
		ticket.AssigneeUserID,
		ticket.Source,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	log.Debug().
		Str("ticket_id", ticket.TicketID.String()).
		Str("tenant_id", ticket.TenantID.String()).
		Msg("Created ticket")

	return nil
}

// Get retrieves a ticket by ID regardless of tenant.
func (s *TicketStore) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE ticket_id = $1
	`

	t, err := scanTicket(s.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return t, nil
}

// List returns tickets matching the scope, newest first.
func (s *TicketStore) List(ctx context.Context, scope policy.Scope, limit int) ([]*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID}

	if scope.OwnerUserID != nil {
		query += ` AND requester_user_id = $2`
		args = append(args, *scope.OwnerUserID)
	}

	query += ` ORDER BY created_at DESC`

	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// Update updates an existing ticket.
func (s *TicketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	query := `
		UPDATE tickets
		SET title = $2, description = $3, status = $4, priority = $5,
			assignee_user_id = $6, updated_at = $7
		WHERE ticket_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeUserID,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrTicketNotFound
	}

	return nil
}
