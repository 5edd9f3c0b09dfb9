package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TenantType distinguishes the two account kinds the portal serves.
type TenantType string

const (
	TenantTypeIndividual   TenantType = "individual"   // Single-user account
	TenantTypeOrganization TenantType = "organization" // Company account with multiple members
)

// PersonaRole is the sub-classification of a principal within its tenant type.
type PersonaRole string

const (
	PersonaIndividualUser PersonaRole = "individual_user"
	PersonaOrgAdmin       PersonaRole = "org_admin"
	PersonaOrgAgent       PersonaRole = "org_agent"
)

// TenantType returns the tenant type a persona role implies.
func (r PersonaRole) TenantType() TenantType {
	if r == PersonaIndividualUser {
		return TenantTypeIndividual
	}
	return TenantTypeOrganization
}

// Plan is the subscription plan attached to a principal.
type Plan string

const (
	PlanTrial      Plan = "trial"
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ThrottleState reflects where the principal sits against its token quota.
type ThrottleState string

const (
	ThrottleNormal    ThrottleState = "normal"
	ThrottleWarning   ThrottleState = "warning"
	ThrottleThrottled ThrottleState = "throttled"
)

// Principal represents the authenticated actor making a request.
// A principal belongs to exactly one tenant and is immutable for the
// duration of a request.
type Principal struct {
	PrincipalID uuid.UUID // UUIDv7
	TenantID    uuid.UUID // UUIDv7, FK to tenants
	TenantType  TenantType
	PersonaRole PersonaRole
	DisplayName string
	Email       string

	// Subscription / usage
	Plan              Plan
	TrialExpiresAt    *time.Time
	TokensUsedPeriod  int64
	TokensQuotaPeriod int64
	ThrottleState     ThrottleState

	// Metadata
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSeenAt *time.Time
	DeletedAt  *time.Time // Soft delete
}

// IsDeleted returns true if the principal has been soft-deleted.
func (p *Principal) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Validate checks the tenant type / persona role consistency invariant:
// an individual_user persona implies an individual tenant and the two
// organization personas imply an organization tenant.
func (p *Principal) Validate() error {
	switch p.TenantType {
	case TenantTypeIndividual, TenantTypeOrganization:
	default:
		return fmt.Errorf("unknown tenant type %q", p.TenantType)
	}

	switch p.PersonaRole {
	case PersonaIndividualUser, PersonaOrgAdmin, PersonaOrgAgent:
	default:
		return fmt.Errorf("unknown persona role %q", p.PersonaRole)
	}

	if p.PersonaRole.TenantType() != p.TenantType {
		return fmt.Errorf("persona role %q is not valid for tenant type %q", p.PersonaRole, p.TenantType)
	}

	return nil
}
