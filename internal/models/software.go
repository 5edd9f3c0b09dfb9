package models

import (
	"time"

	"github.com/google/uuid"
)

// Software distribution is an organization-only feature: packages are rolled
// out to device groups via deployments, and per-device outcomes land in
// deployment results.

// Package is an installable software package registered by a tenant.
type Package struct {
	PackageID      uuid.UUID // UUIDv7
	TenantID       uuid.UUID
	Name           string
	Version        string
	Type           string // e.g., "msi", "exe", "script"
	RebootBehavior string // e.g., "never", "if_required", "always"
	CreatedAt      time.Time
}

// DeviceGroup is a named set of devices used as a deployment target.
type DeviceGroup struct {
	GroupID   uuid.UUID // UUIDv7
	TenantID  uuid.UUID
	Name      string
	AgentIDs  []uuid.UUID // Member devices
	CreatedAt time.Time
}

// DeploymentStatus is the lifecycle state of a rollout.
type DeploymentStatus string

const (
	DeploymentPending   DeploymentStatus = "pending"
	DeploymentRunning   DeploymentStatus = "running"
	DeploymentCompleted DeploymentStatus = "completed"
	DeploymentFailed    DeploymentStatus = "failed"
)

// IsActive returns true while the rollout is still in flight.
func (s DeploymentStatus) IsActive() bool {
	return s == DeploymentPending || s == DeploymentRunning
}

// Deployment rolls a package out to a device group.
type Deployment struct {
	DeploymentID    uuid.UUID // UUIDv7
	TenantID        uuid.UUID
	Name            string
	PackageID       uuid.UUID
	DeviceGroupID   uuid.UUID
	RolloutStrategy string // e.g., "immediate", "staged"
	Status          DeploymentStatus
	StartTime       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeploymentResult records the outcome of a deployment on a single device.
type DeploymentResult struct {
	ResultID     uuid.UUID // UUIDv7
	TenantID     uuid.UUID
	DeploymentID uuid.UUID
	AgentID      uuid.UUID
	Status       string // "success", "failed", "pending"
	Detail       string
	CreatedAt    time.Time
}
