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

// CatalogStore implements store.CatalogStore using PostgreSQL.
// Catalog items are tenant-wide; requests are owned by the requesting user
// and the scope's owner constraint is applied to the requester column.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a new PostgreSQL-backed catalog store.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{
		pool: pool,
	}
}

// CreateItem creates a new catalog item.
func (s *CatalogStore) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	query := `
		INSERT INTO catalog_items (
			item_id, tenant_id, type, title, description, icon_url,
			category, requires_approval, active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		item.ItemID,
		item.TenantID,
		item.Type,
		item.Title,
		item.Description,
		item.IconURL,
		item.Category,
		item.RequiresApproval,
		item.Active,
		item.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create catalog item: %w", err)
	}

	log.Debug().
		Str("item_id", item.ItemID.String()).
		Str("title", item.Title).
		Msg("Created catalog item")

	return nil
}

const catalogItemColumns = `
	item_id, tenant_id, type, title, description, icon_url,
	category, requires_approval, active, created_at
`

func scanCatalogItem(row pgx.Row) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := row.Scan(
		&item.ItemID,
		&item.TenantID,
		&item.Type,
		&item.Title,
		&item.Description,
		&item.IconURL,
		&item.Category,
		&item.RequiresApproval,
		&item.Active,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns catalog items for the scope's tenant, newest first.
func (s *CatalogStore) ListItems(ctx context.Context, scope policy.Scope, activeOnly bool) ([]*models.CatalogItem, error) {
	query := `
		SELECT ` + catalogItemColumns + `
		FROM catalog_items
		WHERE tenant_id = $1
	`

	if activeOnly {
		query += ` AND active`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []*models.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a catalog item by ID regardless of tenant.
func (s *CatalogStore) GetItem(ctx context.Context, itemID uuid.UUID) (*models.CatalogItem, error) {
	query := `
		SELECT ` + catalogItemColumns + `
		FROM catalog_items
		WHERE item_id = $1
	`

	item, err := scanCatalogItem(s.pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}

	return item, nil
}

// CreateRequest creates a new catalog request.
func (s *CatalogStore) CreateRequest(ctx context.Context, request *models.CatalogRequest) error {
	query := `
		INSERT INTO catalog_requests (
			request_id, tenant_id, item_id, requester_user_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		request.RequestID,
		request.TenantID,
		request.ItemID,
		request.RequesterUserID,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrCatalogItemNotFound
		}
		return fmt.Errorf("failed to create catalog request: %w", err)
	}

	log.Debug().
		Str("request_id", request.RequestID.String()).
		Str("item_id", request.ItemID.String()).
		Msg("Created catalog request")

	return nil
}

const catalogRequestColumns = `
	request_id, tenant_id, item_id, requester_user_id, status, created_at, updated_at
`

func scanCatalogRequest(row pgx.Row) (*models.CatalogRequest, error) {
	var req models.CatalogRequest
	err := row.Scan(
		&req.RequestID,
		&req.TenantID,
		&req.ItemID,
		&req.RequesterUserID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequests returns catalog requests matching the scope, newest first.
func (s *CatalogStore) ListRequests(ctx context.Context, scope policy.Scope, limit int) ([]*models.CatalogRequest, error) {
	query := `
		SELECT ` + catalogRequestColumns + `
		FROM catalog_requests
		WHERE tenant_id = $1
	`
	args := []any{scope.TenantID}

	if scope.OwnerUserID != nil {
		query += ` AND requester_user_id = $2`
		args = append(args, *scope.OwnerUserID)
	}

	query += ` ORDER BY created_at DESC`

	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.CatalogRequest
	for rows.Next() {
		req, err := scanCatalogRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog requests: %w", err)
	}

	return requests, nil
}

// GetRequest retrieves a catalog request by ID regardless of tenant.
func (s *CatalogStore) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.CatalogRequest, error) {
	query := `
		SELECT ` + catalogRequestColumns + `
		FROM catalog_requests
		WHERE request_id = $1
	`

	req, err := scanCatalogRequest(s.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCatalogRequestNotFound
		}
		return nil, fmt.Errorf("failed to get catalog request: %w", err)
	}

	return req, nil
}

// UpdateRequest updates an existing catalog request.
func (s *CatalogStore) UpdateRequest(ctx context.Context, request *models.CatalogRequest) error {
	query := `
		UPDATE catalog_requests
		SET status = $2, updated_at = $3
		WHERE request_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		request.RequestID,
		request.Status,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update catalog request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrCatalogRequestNotFound
	}

	return nil
}
