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

// PrincipalStore implements store.PrincipalStore using PostgreSQL.
type PrincipalStore struct {
	pool *pgxpool.Pool
}

// NewPrincipalStore creates a new PostgreSQL-backed principal store.
// It shares the connection pool with other stores.
func NewPrincipalStore(pool *pgxpool.Pool) *PrincipalStore {
	return &PrincipalStore{
		pool: pool,
	}
}

const principalColumns = `
	principal_id, tenant_id, tenant_type, persona_role,
	display_name, email, plan, trial_expires_at,
	tokens_used_period, tokens_quota_period, throttle_state,
	created_at, updated_at, last_seen_at, deleted_at
`

func scanPrincipal(row pgx.Row) (*models.Principal, error) {
	var p models.Principal
	err := row.Scan(
		&p.PrincipalID,
		&p.TenantID,
		&p.TenantType,
		&p.PersonaRole,
		&p.DisplayName,
		&p.Email,
		&p.Plan,
		&p.TrialExpiresAt,
		&p.TokensUsedPeriod,
		&p.TokensQuotaPeriod,
		&p.ThrottleState,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.LastSeenAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new principal in the database.
func (s *PrincipalStore) Create(ctx context.Context, principal *models.Principal) error {
	query := `
		INSERT INTO principals (
			principal_id, tenant_id, tenant_type, persona_role,
			display_name, email, plan, trial_expires_at,
			tokens_used_period, tokens_quota_period, throttle_state,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := s.pool.Exec(ctx, query,
		principal.PrincipalID,
		principal.TenantID,
		principal.TenantType,
		principal.PersonaRole,
		principal.DisplayName,
		principal.Email,
		principal.Plan,
		principal.TrialExpiresAt,
		principal.TokensUsedPeriod,
		principal.TokensQuotaPeriod,
		principal.ThrottleState,
		principal.CreatedAt,
		principal.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrPrincipalAlreadyExists
		}
		return fmt.Errorf("failed to create principal: %w", err)
	}

	log.Debug().
		Str("principal_id", principal.PrincipalID.String()).
		Str("tenant_id", principal.TenantID.String()).
		Str("persona_role", string(principal.PersonaRole)).
		Msg("Created principal")

	return nil
}

// Get retrieves a non-deleted principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM principals
		WHERE principal_id = $1 AND deleted_at IS NULL
	`

	p, err := scanPrincipal(s.pool.QueryRow(ctx, query, principalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return p, nil
}

// GetByEmail retrieves a non-deleted principal by email.
func (s *PrincipalStore) GetByEmail(ctx context.Context, email string) (*models.Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM principals
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
	`

	p, err := scanPrincipal(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal by email: %w", err)
	}

	return p, nil
}

// Update updates an existing principal.
func (s *PrincipalStore) Update(ctx context.Context, principal *models.Principal) error {
	query := `
		UPDATE principals
		SET display_name = $2, email = $3, plan = $4, trial_expires_at = $5,
			tokens_used_period = $6, tokens_quota_period = $7, throttle_state = $8,
			last_seen_at = $9, updated_at = $10
		WHERE principal_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		principal.PrincipalID,
		principal.DisplayName,
		principal.Email,
		principal.Plan,
		principal.TrialExpiresAt,
		principal.TokensUsedPeriod,
		principal.TokensQuotaPeriod,
		principal.ThrottleState,
		principal.LastSeenAt,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update principal: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrPrincipalNotFound
	}

	return nil
}

// Delete soft-deletes a principal by setting deleted_at.
func (s *PrincipalStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	query := `
		UPDATE principals
		SET deleted_at = $2, updated_at = $2
		WHERE principal_id = $1 AND deleted_at IS NULL
	`

	tag, err := s.pool.Exec(ctx, query, principalID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete principal: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrPrincipalNotFound
	}

	log.Debug().
		Str("principal_id", principalID.String()).
		Msg("Deleted principal")

	return nil
}

// ListByTenant returns all non-deleted principals for a tenant.
func (s *PrincipalStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM principals
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	defer rows.Close()

	var principals []*models.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan principal: %w", err)
		}
		principals = append(principals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate principals: %w", err)
	}

	return principals, nil
}
