package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an owning account (organization or individual) in the
// system. The tenant is the unit of data isolation: every owned resource
// carries exactly one tenant ID and resources never span tenants.
type Tenant struct {
	TenantID    uuid.UUID // UUIDv7
	Type        TenantType
	DisplayName string
	Regions     []string // Organization tenants only (e.g., "DE-Frankfurt")
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
