package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusWaiting, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsOpen returns true for statuses that count as open work.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusWaiting:
		return true
	}
	return false
}

// TicketPriority orders tickets for triage.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityNormal   TicketPriority = "normal"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is one of the known ticket priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketSource records which channel created the ticket.
type TicketSource string

const (
	TicketSourcePortal TicketSource = "portal"
	TicketSourceEmail  TicketSource = "email"
	TicketSourceAgent  TicketSource = "agent"
)

// Ticket is a helpdesk ticket owned by the requesting user within a tenant.
type Ticket struct {
	TicketID        uuid.UUID // UUIDv7
	TenantID        uuid.UUID
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	RequesterUserID uuid.UUID  // Owning user
	AssigneeUserID  *uuid.UUID // Nil until assigned
	Source          TicketSource
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
