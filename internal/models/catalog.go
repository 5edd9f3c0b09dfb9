package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogItemType distinguishes installable software from provisioned services.
type CatalogItemType string

const (
	CatalogItemSoftware CatalogItemType = "software"
	CatalogItemService  CatalogItemType = "service"
)

// CatalogItem is a self-service store offering. Items are tenant-wide:
// every member of the tenant sees the same catalog.
type CatalogItem struct {
	ItemID           uuid.UUID // UUIDv7
	TenantID         uuid.UUID
	Type             CatalogItemType
	Title            string
	Description      string
	IconURL          string
	Category         string
	RequiresApproval bool
	Active           bool
	CreatedAt        time.Time
}

// CatalogRequestStatus is the approval state of a service request.
type CatalogRequestStatus string

const (
	CatalogRequestRequested CatalogRequestStatus = "requested"
	CatalogRequestApproved  CatalogRequestStatus = "approved"
	CatalogRequestRejected  CatalogRequestStatus = "rejected"
	CatalogRequestFulfilled CatalogRequestStatus = "fulfilled"
)

// Valid reports whether s is one of the known request statuses.
func (s CatalogRequestStatus) Valid() bool {
	switch s {
	case CatalogRequestRequested, CatalogRequestApproved, CatalogRequestRejected, CatalogRequestFulfilled:
		return true
	}
	return false
}

// CatalogRequest is a user's request for a catalog item. Owned by the
// requesting user.
type CatalogRequest struct {
	RequestID       uuid.UUID // UUIDv7
	TenantID        uuid.UUID
	ItemID          uuid.UUID
	RequesterUserID uuid.UUID
	Status          CatalogRequestStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
