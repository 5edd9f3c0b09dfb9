package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

func newTicket(tenantID, requesterID uuid.UUID, createdAt time.Time) *models.Ticket {
	return &models.Ticket{
		TicketID:        uuid.Must(uuid.NewV7()),
		TenantID:        tenantID,
		Title:           "Printer on fire",
		Status:          models.TicketStatusNew,
		Priority:        models.TicketPriorityNormal,
		RequesterUserID: requesterID,
		Source:          models.TicketSourcePortal,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func TestTicketStore_ListAppliesScope(t *testing.T) {
	st := NewTicketStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	otherTenant := uuid.Must(uuid.NewV7())
	u1 := uuid.Must(uuid.NewV7())
	u2 := uuid.Must(uuid.NewV7())

	mine := newTicket(tenantID, u1, time.Now())
	theirs := newTicket(tenantID, u2, time.Now())
	foreign := newTicket(otherTenant, u1, time.Now())

	require.NoError(t, st.Create(ctx, mine))
	require.NoError(t, st.Create(ctx, theirs))
	require.NoError(t, st.Create(ctx, foreign))

	t.Run("owner-constrained scope sees only own tickets", func(t *testing.T) {
		scope := policy.Scope{TenantID: tenantID, OwnerUserID: &u1}
		tickets, err := st.List(ctx, scope, 0)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		require.Equal(t, mine.TicketID, tickets[0].TicketID)
	})

	t.Run("tenant-wide scope sees all tenant tickets", func(t *testing.T) {
		scope := policy.Scope{TenantID: tenantID}
		tickets, err := st.List(ctx, scope, 0)
		require.NoError(t, err)
		require.Len(t, tickets, 2)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		scope := policy.Scope{TenantID: tenantID}
		tickets, err := st.List(ctx, scope, 1)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
	})
}

func TestTicketStore_ListNewestFirst(t *testing.T) {
	st := NewTicketStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	u1 := uuid.Must(uuid.NewV7())

	older := newTicket(tenantID, u1, time.Now().Add(-time.Hour))
	newer := newTicket(tenantID, u1, time.Now())

	require.NoError(t, st.Create(ctx, older))
	require.NoError(t, st.Create(ctx, newer))

	tickets, err := st.List(ctx, policy.Scope{TenantID: tenantID}, 0)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	require.Equal(t, newer.TicketID, tickets[0].TicketID)
	require.Equal(t, older.TicketID, tickets[1].TicketID)
}

func TestTicketStore_GetAndUpdate(t *testing.T) {
	st := NewTicketStore()
	ctx := context.Background()

	ticket := newTicket(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), time.Now())
	require.NoError(t, st.Create(ctx, ticket))

	t.Run("get existing", func(t *testing.T) {
		got, err := st.Get(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Equal(t, ticket.Title, got.Title)
	})

	t.Run("get nonexistent", func(t *testing.T) {
		_, err := st.Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrTicketNotFound)
	})

	t.Run("update changes status", func(t *testing.T) {
		ticket.Status = models.TicketStatusResolved
		require.NoError(t, st.Update(ctx, ticket))

		got, err := st.Get(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Equal(t, models.TicketStatusResolved, got.Status)
	})

	t.Run("update nonexistent", func(t *testing.T) {
		bogus := newTicket(uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), time.Now())
		require.ErrorIs(t, st.Update(ctx, bogus), store.ErrTicketNotFound)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := st.Get(ctx, ticket.TicketID)
		require.NoError(t, err)
		got.Title = "mutated"

		again, err := st.Get(ctx, ticket.TicketID)
		require.NoError(t, err)
		require.Equal(t, "Printer on fire", again.Title)
	})
}
