package policy

import (
	"context"
	"slices"

	"github.com/neyraq/portal/internal/models"
)

// Permission represents an authorized action
type Permission string

const (
	PermTicketsCreate  Permission = "tickets:create"
	PermTicketsManage  Permission = "tickets:manage" // status/priority/assignee changes
	PermSoftwareManage Permission = "software:manage"
	PermCatalogRequest Permission = "catalog:request"
	PermCatalogApprove Permission = "catalog:approve"
	PermBillingManage  Permission = "billing:manage"
)

// RolePermissions maps persona roles to allowed permissions
var RolePermissions = map[models.PersonaRole][]Permission{
	models.PersonaIndividualUser: {
		PermTicketsCreate,
		PermTicketsManage,
		PermCatalogRequest,
		PermBillingManage,
	},
	models.PersonaOrgAdmin: {
		PermTicketsCreate,
		PermTicketsManage,
		PermSoftwareManage,
		PermCatalogRequest,
		PermCatalogApprove,
		PermBillingManage,
	},
	models.PersonaOrgAgent: {
		PermTicketsCreate,
		PermTicketsManage,
		PermSoftwareManage,
		PermCatalogRequest,
	},
}

// HasPermission checks if a persona role has a specific permission
func HasPermission(role models.PersonaRole, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// RequirePermission checks authorization for the principal in the context
// and returns an error if not authorized.
func RequirePermission(ctx context.Context, perm Permission) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	if !HasPermission(p.PersonaRole, perm) {
		return ErrForbidden
	}

	return nil
}
