package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

// Sentinel errors for ticket store operations
var (
	ErrTicketNotFound = errors.New("ticket not found")
)

// TicketStore defines the interface for helpdesk ticket storage operations.
//
// List applies the caller's scope predicate inside the query so no
// out-of-scope row ever reaches the handler. Get is unscoped: the mutation
// path needs the row's actual tenant and owner IDs to feed the mutation
// guard, and the read path re-checks visibility with Scope.Matches before
// returning anything to a client.
type TicketStore interface {
	// Create creates a new ticket.
	Create(ctx context.Context, ticket *models.Ticket) error

	// Get retrieves a ticket by ID regardless of tenant.
	// Returns ErrTicketNotFound if the ticket doesn't exist.
	Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)

	// List returns tickets matching the scope, newest first, up to limit
	// (0 = no limit).
	List(ctx context.Context, scope policy.Scope, limit int) ([]*models.Ticket, error)

	// Update updates an existing ticket.
	// Returns ErrTicketNotFound if the ticket doesn't exist.
	Update(ctx context.Context, ticket *models.Ticket) error
}
