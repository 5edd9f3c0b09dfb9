package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatus is the reported connectivity of a device agent.
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentOffline AgentStatus = "offline"
)

// Agent is the endpoint agent installed on a managed device. Individual
// tenants see only their own devices; organization tenants see the whole
// fleet under their tenant ID.
type Agent struct {
	AgentID      uuid.UUID // UUIDv7
	TenantID     uuid.UUID
	OwnerUserID  uuid.UUID // User the device is enrolled to
	DeviceName   string
	OSVersion    string
	AgentVersion string
	Status       AgentStatus
	LastSeenAt   *time.Time
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgentEvent is a recent action or status change reported by an agent.
type AgentEvent struct {
	EventID   int64 // Serial, per-store
	AgentID   uuid.UUID
	EventType string
	Message   string
	CreatedAt time.Time
}
