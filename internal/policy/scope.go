package policy

import (
	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
)

// ResourceKind names a collection of owned resources for scoping decisions.
type ResourceKind string

const (
	KindTicket           ResourceKind = "ticket"
	KindAgent            ResourceKind = "agent"
	KindPackage          ResourceKind = "package"
	KindDeployment       ResourceKind = "deployment"
	KindDeviceGroup      ResourceKind = "device_group"
	KindDeploymentResult ResourceKind = "deployment_result"
	KindCatalogItem      ResourceKind = "catalog_item"
	KindCatalogRequest   ResourceKind = "catalog_request"
	KindPaymentMethod    ResourceKind = "payment_method"
)

// kindTraits describes how a resource kind participates in scoping.
type kindTraits struct {
	// orgOnly kinds belong to organization-wide features; individual
	// tenants get Forbidden rather than an empty result set.
	orgOnly bool

	// perUser kinds carry an owning user ID that individual principals
	// are additionally constrained to.
	perUser bool
}

var traits = map[ResourceKind]kindTraits{
	KindTicket:           {perUser: true},
	KindAgent:            {perUser: true},
	KindPackage:          {orgOnly: true},
	KindDeployment:       {orgOnly: true},
	KindDeviceGroup:      {orgOnly: true},
	KindDeploymentResult: {orgOnly: true},
	KindCatalogItem:      {}, // tenant-wide, no owner column
	KindCatalogRequest:   {perUser: true},
	KindPaymentMethod:    {perUser: true},
}

// Scope is the filter predicate restricting which rows a principal may see.
// Conceptually "tenant_id = TenantID [AND owner_user_id = OwnerUserID]".
// It is always derived from the server-held Principal, never from caller
// input, and must be applied by the query layer before any row is returned.
type Scope struct {
	TenantID    uuid.UUID
	OwnerUserID *uuid.UUID // Non-nil only for individual principals on per-user kinds
}

// Matches reports whether a row with the given tenant and owner IDs falls
// inside the scope. Used by the in-memory stores; the postgres stores
// translate the scope into WHERE clauses instead.
func (s Scope) Matches(tenantID, ownerUserID uuid.UUID) bool {
	if tenantID != s.TenantID {
		return false
	}
	if s.OwnerUserID != nil && ownerUserID != *s.OwnerUserID {
		return false
	}
	return true
}

// ScopeFilter computes the visibility predicate for a principal listing or
// reading resources of the given kind.
//
// The predicate is always tenant-ID equality. For individual-tenant
// principals it additionally constrains per-user kinds to rows the
// principal owns. Organization-only kinds requested by an individual
// principal fail with ErrForbidden: "no access to this feature" is distinct
// from "empty result set".
func ScopeFilter(p *models.Principal, kind ResourceKind) (Scope, error) {
	if p == nil {
		return Scope{}, ErrUnauthenticated
	}

	t, ok := traits[kind]
	if !ok {
		return Scope{}, ErrForbidden
	}

	if t.orgOnly && p.TenantType != models.TenantTypeOrganization {
		return Scope{}, ErrForbidden
	}

	scope := Scope{TenantID: p.TenantID}
	if t.perUser && p.TenantType == models.TenantTypeIndividual {
		owner := p.PrincipalID
		scope.OwnerUserID = &owner
	}

	return scope, nil
}

// AuthorizeMutation validates that a write targets a resource within the
// caller's tenant. It must run as the last check immediately before the
// write, even when an earlier read already filtered by scope, so that a
// resource ID supplied directly (e.g., via a path parameter) cannot bypass
// the list-time filter.
//
// resourceOwnerID is the owning user of a per-user resource; pass uuid.Nil
// for kinds without an owner column.
func AuthorizeMutation(p *models.Principal, kind ResourceKind, resourceTenantID, resourceOwnerID uuid.UUID) error {
	if p == nil {
		return ErrUnauthenticated
	}

	t, ok := traits[kind]
	if !ok {
		return ErrForbidden
	}

	if t.orgOnly && p.TenantType != models.TenantTypeOrganization {
		return ErrForbidden
	}

	if resourceTenantID != p.TenantID {
		return ErrForbidden
	}

	if t.perUser && p.TenantType == models.TenantTypeIndividual && resourceOwnerID != p.PrincipalID {
		return ErrForbidden
	}

	return nil
}
