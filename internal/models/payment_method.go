package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethodStatus is the lifecycle state of a stored card.
type PaymentMethodStatus string

const (
	PaymentMethodActive   PaymentMethodStatus = "active"
	PaymentMethodInactive PaymentMethodStatus = "inactive"
)

// PaymentMethod is a stored card reference. The raw card number is never
// persisted: only the brand, the last four digits, and a deterministic
// SHA-256 fingerprint used for duplicate detection within a tenant.
type PaymentMethod struct {
	PaymentMethodID uuid.UUID // UUIDv7
	TenantID        uuid.UUID
	OwnerUserID     uuid.UUID
	Brand           string // "visa", "mastercard", "amex", or "card"
	Last4           string
	ExpMonth        int
	ExpYear         int
	Fingerprint     string // hex SHA-256 of the normalized PAN
	Status          PaymentMethodStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
