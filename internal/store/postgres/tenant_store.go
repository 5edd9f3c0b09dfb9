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
	"github.com/neyraq/portal/internal/store"
)

// TenantStore implements store.TenantStore using PostgreSQL.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a new PostgreSQL-backed tenant store.
// It shares the connection pool with other stores.
func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{
		pool: pool,
	}
}

// Create creates a new tenant in the database.
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (
			tenant_id, type, display_name, regions, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.pool.Exec(ctx, query,
		tenant.TenantID,
		tenant.Type,
		tenant.DisplayName,
		tenant.Regions,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrTenantAlreadyExists
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	log.Debug().
		Str("tenant_id", tenant.TenantID.String()).
		Str("type", string(tenant.Type)).
		Msg("Created tenant")

	return nil
}

// Get retrieves a tenant by ID.
func (s *TenantStore) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT tenant_id, type, display_name, regions, created_at, updated_at
		FROM tenants
		WHERE tenant_id = $1
	`

	var t models.Tenant
	err := s.pool.QueryRow(ctx, query, tenantID).Scan(
		&t.TenantID,
		&t.Type,
		&t.DisplayName,
		&t.Regions,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

// Update updates an existing tenant.
func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET display_name = $2, regions = $3, updated_at = $4
		WHERE tenant_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		tenant.TenantID,
		tenant.DisplayName,
		tenant.Regions,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrTenantNotFound
	}

	return nil
}
