package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/models"
)

func individualPrincipal(tenantID uuid.UUID) *models.Principal {
	return &models.Principal{
		PrincipalID: uuid.Must(uuid.NewV7()),
		TenantID:    tenantID,
		TenantType:  models.TenantTypeIndividual,
		PersonaRole: models.PersonaIndividualUser,
	}
}

func orgPrincipal(tenantID uuid.UUID, role models.PersonaRole) *models.Principal {
	return &models.Principal{
		PrincipalID: uuid.Must(uuid.NewV7()),
		TenantID:    tenantID,
		TenantType:  models.TenantTypeOrganization,
		PersonaRole: role,
	}
}

func TestScopeFilter_IndividualConstrainsToOwner(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	p := individualPrincipal(tenantID)

	scope, err := ScopeFilter(p, KindTicket)
	require.NoError(t, err)
	require.Equal(t, tenantID, scope.TenantID)
	require.NotNil(t, scope.OwnerUserID)
	require.Equal(t, p.PrincipalID, *scope.OwnerUserID)

	otherUser := uuid.Must(uuid.NewV7())
	require.True(t, scope.Matches(tenantID, p.PrincipalID))
	require.False(t, scope.Matches(tenantID, otherUser))
	require.False(t, scope.Matches(uuid.Must(uuid.NewV7()), p.PrincipalID))
}

func TestScopeFilter_OrganizationSeesWholeTenant(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	p := orgPrincipal(tenantID, models.PersonaOrgAdmin)

	scope, err := ScopeFilter(p, KindTicket)
	require.NoError(t, err)
	require.Equal(t, tenantID, scope.TenantID)
	require.Nil(t, scope.OwnerUserID)

	// Visible regardless of which member owns the row.
	require.True(t, scope.Matches(tenantID, uuid.Must(uuid.NewV7())))
	require.False(t, scope.Matches(uuid.Must(uuid.NewV7()), p.PrincipalID))
}

func TestScopeFilter_TicketVisibilityScenario(t *testing.T) {
	// Individual principal u1 in tenant t1; tickets tk1 (owned by u1) and
	// tk2 (owned by u2) both in t1.
	tenantID := uuid.Must(uuid.NewV7())
	u1 := individualPrincipal(tenantID)
	u2 := uuid.Must(uuid.NewV7())

	tickets := []models.Ticket{
		{TicketID: uuid.Must(uuid.NewV7()), TenantID: tenantID, RequesterUserID: u1.PrincipalID},
		{TicketID: uuid.Must(uuid.NewV7()), TenantID: tenantID, RequesterUserID: u2},
	}

	scope, err := ScopeFilter(u1, KindTicket)
	require.NoError(t, err)

	var visible []models.Ticket
	for _, tk := range tickets {
		if scope.Matches(tk.TenantID, tk.RequesterUserID) {
			visible = append(visible, tk)
		}
	}
	require.Len(t, visible, 1)
	require.Equal(t, tickets[0].TicketID, visible[0].TicketID)

	// The organization view of the same two tickets sees both.
	org := orgPrincipal(tenantID, models.PersonaOrgAgent)
	scope, err = ScopeFilter(org, KindTicket)
	require.NoError(t, err)

	visible = visible[:0]
	for _, tk := range tickets {
		if scope.Matches(tk.TenantID, tk.RequesterUserID) {
			visible = append(visible, tk)
		}
	}
	require.Len(t, visible, 2)
}

func TestScopeFilter_OrgOnlyKindForbiddenForIndividual(t *testing.T) {
	p := individualPrincipal(uuid.Must(uuid.NewV7()))

	for _, kind := range []ResourceKind{KindPackage, KindDeployment, KindDeviceGroup, KindDeploymentResult} {
		_, err := ScopeFilter(p, kind)
		require.ErrorIs(t, err, ErrForbidden, "kind %s", kind)
	}
}

func TestScopeFilter_CatalogItemsTenantWideForIndividual(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	p := individualPrincipal(tenantID)

	scope, err := ScopeFilter(p, KindCatalogItem)
	require.NoError(t, err)
	require.Nil(t, scope.OwnerUserID)
	require.True(t, scope.Matches(tenantID, uuid.Nil))
}

func TestScopeFilter_UnknownKind(t *testing.T) {
	p := orgPrincipal(uuid.Must(uuid.NewV7()), models.PersonaOrgAdmin)
	_, err := ScopeFilter(p, ResourceKind("bogus"))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestScopeFilter_NilPrincipal(t *testing.T) {
	_, err := ScopeFilter(nil, KindTicket)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorizeMutation(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	otherTenant := uuid.Must(uuid.NewV7())

	t.Run("cross-tenant patch is forbidden regardless of prior reads", func(t *testing.T) {
		org := orgPrincipal(tenantID, models.PersonaOrgAdmin)
		err := AuthorizeMutation(org, KindTicket, otherTenant, uuid.Nil)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("same-tenant patch allowed for organization", func(t *testing.T) {
		org := orgPrincipal(tenantID, models.PersonaOrgAgent)
		someOwner := uuid.Must(uuid.NewV7())
		require.NoError(t, AuthorizeMutation(org, KindTicket, tenantID, someOwner))
	})

	t.Run("individual must own per-user resource", func(t *testing.T) {
		p := individualPrincipal(tenantID)
		require.NoError(t, AuthorizeMutation(p, KindPaymentMethod, tenantID, p.PrincipalID))

		err := AuthorizeMutation(p, KindPaymentMethod, tenantID, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("individual cannot mutate org-only kinds", func(t *testing.T) {
		p := individualPrincipal(tenantID)
		err := AuthorizeMutation(p, KindDeployment, tenantID, uuid.Nil)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("nil principal is unauthenticated", func(t *testing.T) {
		err := AuthorizeMutation(nil, KindTicket, tenantID, uuid.Nil)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}
