package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

// PaymentMethodStore implements store.PaymentMethodStore using PostgreSQL.
// Duplicate detection rides on the (tenant_id, fingerprint) unique
// constraint rather than a read-then-write check.
type PaymentMethodStore struct {
	pool *pgxpool.Pool
}

// NewPaymentMethodStore creates a new PostgreSQL-backed payment method store.
func NewPaymentMethodStore(pool *pgxpool.Pool) *PaymentMethodStore {
	return &PaymentMethodStore{
		pool: pool,
	}
}

const paymentMethodColumns = `
	payment_method_id, tenant_id, owner_user_id, brand, last4,
	exp_month, exp_year, fingerprint, status, created_at, updated_at
`

func scanPaymentMethod(row pgx.Row) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := row.Scan(
		&pm.PaymentMethodID,
		&pm.TenantID,
		&pm.OwnerUserID,
		&pm.Brand,
		&pm.Last4,
		&pm.ExpMonth,
		&pm.ExpYear,
		&pm.Fingerprint,
		&pm.Status,
		&pm.CreatedAt,
		&pm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// Create stores a new payment method.
func (s *PaymentMethodStore) Create(ctx context.Context, pm *models.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (
			payment_method_id, tenant_id, owner_user_id, brand, last4,
			exp_month, exp_year, fingerprint, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		pm.PaymentMethodID,
		pm.TenantID,
		pm.OwnerUserID,
		pm.Brand,
		pm.Last4,
		pm.ExpMonth,
		pm.ExpYear,
		pm.Fingerprint,
		pm.Status,
		pm.CreatedAt,
		pm.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrPaymentMethodExists
		}
		return fmt.Errorf("failed to create payment method: %w", err)
	}

	log.Debug().
		Str("payment_method_id", pm.PaymentMethodID.String()).
		Str("tenant_id", pm.TenantID.String()).
		Str("brand", pm.Brand).
		Msg("Created payment method")

	return nil
}

// Get retrieves a payment method by ID regardless of tenant.
func (s *PaymentMethodStore) Get(ctx context.Context, paymentMethodID uuid.UUID) (*models.PaymentMethod, error) {
	query := `
		SELECT ` + paymentMethodColumns + `
		FROM payment_methods
		WHERE payment_method_id = $1
	`

	pm, err := scanPaymentMethod(s.pool.QueryRow(ctx, query, paymentMethodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}

	return pm, nil
}

// List returns payment methods matching the scope, newest first.
func (s *PaymentMethodStore) List(ctx context.Context, scope policy.Scope) ([]*models.PaymentMethod, error) {
	query := `
		SELECT ` + paymentMethodColumns + `
		FROM payment_methods
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID}

	if scope.OwnerUserID != nil {
		query += ` AND owner_user_id = $2`
		args = append(args, *scope.OwnerUserID)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment methods: %w", err)
	}

	return methods, nil
}

// Update updates an existing payment method.
func (s *PaymentMethodStore) Update(ctx context.Context, pm *models.PaymentMethod) error {
	query := `
		UPDATE payment_methods
		SET status = $2, exp_month = $3, exp_year = $4, updated_at = $5
		WHERE payment_method_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		pm.PaymentMethodID,
		pm.Status,
		pm.ExpMonth,
		pm.ExpYear,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrPaymentMethodNotFound
	}

	return nil
}
