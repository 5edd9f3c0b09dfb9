package policy

import (
	"github.com/neyraq/portal/internal/models"
)

// ViewVariant is the tagged choice between the individual-user presentation
// and the organization presentation. Pages and routes that behave
// differently per persona consult SelectView instead of re-deriving the
// branch from the tenant type at every call site.
type ViewVariant string

const (
	ViewIndividual   ViewVariant = "individual"
	ViewOrganization ViewVariant = "organization"
)

// View describes which branch of functionality and which data shape a
// response should use for a principal.
type View struct {
	Variant ViewVariant
	Role    models.PersonaRole

	// Feature toggles derived from the variant and role.
	ShowFleet      bool // organization: whole device fleet vs own devices
	ShowSoftware   bool // organization-only software distribution
	ShowUsage      bool // individual plan/token usage panel
	CanAssignWork  bool // org personas can assign tickets to members
	CanApproveReqs bool // org_admin approves catalog requests
}

// SelectView picks the presentation variant for a principal. It is a total,
// deterministic function of the tenant type and persona role and performs
// no data access.
func SelectView(p *models.Principal) View {
	if p == nil || p.TenantType != models.TenantTypeOrganization {
		role := models.PersonaIndividualUser
		if p != nil {
			role = p.PersonaRole
		}
		return View{
			Variant:   ViewIndividual,
			Role:      role,
			ShowUsage: true,
		}
	}

	return View{
		Variant:        ViewOrganization,
		Role:           p.PersonaRole,
		ShowFleet:      true,
		ShowSoftware:   true,
		CanAssignWork:  true,
		CanApproveReqs: p.PersonaRole == models.PersonaOrgAdmin,
	}
}
