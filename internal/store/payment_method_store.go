package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

// Sentinel errors for payment method store operations
var (
	ErrPaymentMethodNotFound = errors.New("payment method not found")

	// ErrPaymentMethodExists signals a duplicate card: another payment
	// method with the same fingerprint is already stored for the tenant.
	ErrPaymentMethodExists = errors.New("payment method already exists")
)

// PaymentMethodStore defines the interface for stored card references.
// Duplicate detection is by (tenant_id, fingerprint): submitting the same
// card number twice for a tenant must never produce two stored records.
type PaymentMethodStore interface {
	// Create stores a new payment method.
	// Returns ErrPaymentMethodExists if the tenant already has a method
	// with the same fingerprint.
	Create(ctx context.Context, pm *models.PaymentMethod) error

	// Get retrieves a payment method by ID regardless of tenant.
	// Returns ErrPaymentMethodNotFound if it doesn't exist.
	Get(ctx context.Context, paymentMethodID uuid.UUID) (*models.PaymentMethod, error)

	// List returns payment methods matching the scope, newest first.
	List(ctx context.Context, scope policy.Scope) ([]*models.PaymentMethod, error)

	// Update updates an existing payment method (e.g., deactivation).
	// Returns ErrPaymentMethodNotFound if it doesn't exist.
	Update(ctx context.Context, pm *models.PaymentMethod) error
}
