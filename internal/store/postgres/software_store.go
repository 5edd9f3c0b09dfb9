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

// SoftwareStore implements store.SoftwareStore using PostgreSQL.
// Device group membership lives in the device_group_members join table;
// the model's AgentIDs slice is loaded and saved through it.
type SoftwareStore struct {
	pool *pgxpool.Pool
}

// NewSoftwareStore creates a new PostgreSQL-backed software store.
func NewSoftwareStore(pool *pgxpool.Pool) *SoftwareStore {
	return &SoftwareStore{
		pool: pool,
	}
}

// CreatePackage registers a new software package.
func (s *SoftwareStore) CreatePackage(ctx context.Context, pkg *models.Package) error {
	query := `
		INSERT INTO packages (
			package_id, tenant_id, name, version, type, reboot_behavior, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		pkg.PackageID,
		pkg.TenantID,
		pkg.Name,
		pkg.Version,
		pkg.Type,
		pkg.RebootBehavior,
		pkg.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	log.Debug().
		Str("package_id", pkg.PackageID.String()).
		Str("name", pkg.Name).
		Msg("Created package")

	return nil
}

// ListPackages returns packages for the scope's tenant, newest first.
func (s *SoftwareStore) ListPackages(ctx context.Context, scope policy.Scope) ([]*models.Package, error) {
	query := `
		SELECT package_id, tenant_id, name, version, type, reboot_behavior, created_at
		FROM packages
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*models.Package
	for rows.Next() {
		var p models.Package
		if err := rows.Scan(&p.PackageID, &p.TenantID, &p.Name, &p.Version, &p.Type, &p.RebootBehavior, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate packages: %w", err)
	}

	return packages, nil
}

// GetPackage retrieves a package by ID regardless of tenant.
func (s *SoftwareStore) GetPackage(ctx context.Context, packageID uuid.UUID) (*models.Package, error) {
	query := `
		SELECT package_id, tenant_id, name, version, type, reboot_behavior, created_at
		FROM packages
		WHERE package_id = $1
	`

	var p models.Package
	err := s.pool.QueryRow(ctx, query, packageID).Scan(
		&p.PackageID, &p.TenantID, &p.Name, &p.Version, &p.Type, &p.RebootBehavior, &p.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &p, nil
}

// CreateDeviceGroup creates a device group and its membership rows in a
// single transaction.
func (s *SoftwareStore) CreateDeviceGroup(ctx context.Context, group *models.DeviceGroup) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	query := `
		INSERT INTO device_groups (group_id, tenant_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = tx.Exec(ctx, query, group.GroupID, group.TenantID, group.Name, group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create device group: %w", err)
	}

	for _, agentID := range group.AgentIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO device_group_members (group_id, agent_id) VALUES ($1, $2)
		`, group.GroupID, agentID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrAgentNotFound
			}
			return fmt.Errorf("failed to add device group member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit device group: %w", err)
	}

	log.Debug().
		Str("group_id", group.GroupID.String()).
		Str("name", group.Name).
		Int("members", len(group.AgentIDs)).
		Msg("Created device group")

	return nil
}

// ListDeviceGroups returns device groups for the scope's tenant, by name.
func (s *SoftwareStore) ListDeviceGroups(ctx context.Context, scope policy.Scope) ([]*models.DeviceGroup, error) {
	query := `
		SELECT group_id, tenant_id, name, created_at
		FROM device_groups
		WHERE tenant_id = $1
		ORDER BY name
	`

	rows, err := s.pool.Query(ctx, query, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.DeviceGroup
	for rows.Next() {
		var g models.DeviceGroup
		if err := rows.Scan(&g.GroupID, &g.TenantID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device group: %w", err)
		}
		groups = append(groups, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device groups: %w", err)
	}

	for _, g := range groups {
		if err := s.loadGroupMembers(ctx, g); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// GetDeviceGroup retrieves a device group by ID regardless of tenant.
func (s *SoftwareStore) GetDeviceGroup(ctx context.Context, groupID uuid.UUID) (*models.DeviceGroup, error) {
	query := `
		SELECT group_id, tenant_id, name, created_at
		FROM device_groups
		WHERE group_id = $1
	`

	var g models.DeviceGroup
	err := s.pool.QueryRow(ctx, query, groupID).Scan(&g.GroupID, &g.TenantID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDeviceGroupNotFound
		}
		return nil, fmt.Errorf("failed to get device group: %w", err)
	}

	if err := s.loadGroupMembers(ctx, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

func (s *SoftwareStore) loadGroupMembers(ctx context.Context, g *models.DeviceGroup) error {
	rows, err := s.pool.Query(ctx, `
		SELECT agent_id FROM device_group_members WHERE group_id = $1
	`, g.GroupID)
	if err != nil {
		return fmt.Errorf("failed to list device group members: %w", err)
	}
	defer rows.Close()

	g.AgentIDs = nil
	for rows.Next() {
		var agentID uuid.UUID
		if err := rows.Scan(&agentID); err != nil {
			return fmt.Errorf("failed to scan device group member: %w", err)
		}
		g.AgentIDs = append(g.AgentIDs, agentID)
	}

	return rows.Err()
}

// CreateDeployment creates a new deployment.
func (s *SoftwareStore) CreateDeployment(ctx context.Context, deployment *models.Deployment) error {
	query := `
		INSERT INTO deployments (
			deployment_id, tenant_id, name, package_id, device_group_id,
			rollout_strategy, status, start_time, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		deployment.DeploymentID,
		deployment.TenantID,
		deployment.Name,
		deployment.PackageID,
		deployment.DeviceGroupID,
		deployment.RolloutStrategy,
		deployment.Status,
		deployment.StartTime,
		deployment.CreatedAt,
		deployment.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrPackageNotFound
		}
		return fmt.Errorf("failed to create deployment: %w", err)
	}

	log.Debug().
		Str("deployment_id", deployment.DeploymentID.String()).
		Str("name", deployment.Name).
		Msg("Created deployment")

	return nil
}

const deploymentColumns = `
	deployment_id, tenant_id, name, package_id, device_group_id,
	rollout_strategy, status, start_time, created_at, updated_at
`

func scanDeployment(row pgx.Row) (*models.Deployment, error) {
	var d models.Deployment
	err := row.Scan(
		&d.DeploymentID,
		&d.TenantID,
		&d.Name,
		&d.PackageID,
		&d.DeviceGroupID,
		&d.RolloutStrategy,
		&d.Status,
		&d.StartTime,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDeployments returns deployments for the scope's tenant, newest first.
func (s *SoftwareStore) ListDeployments(ctx context.Context, scope policy.Scope) ([]*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	return collectDeployments(rows)
}

// GetDeployment retrieves a deployment by ID regardless of tenant.
func (s *SoftwareStore) GetDeployment(ctx context.Context, deploymentID uuid.UUID) (*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE deployment_id = $1
	`

	d, err := scanDeployment(s.pool.QueryRow(ctx, query, deploymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDeploymentNotFound
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}

	return d, nil
}

// UpdateDeployment updates an existing deployment.
func (s *SoftwareStore) UpdateDeployment(ctx context.Context, deployment *models.Deployment) error {
	query := `
		UPDATE deployments
		SET name = $2, rollout_strategy = $3, status = $4, start_time = $5, updated_at = $6
		WHERE deployment_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		deployment.DeploymentID,
		deployment.Name,
		deployment.RolloutStrategy,
		deployment.Status,
		deployment.StartTime,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrDeploymentNotFound
	}

	return nil
}

// ListDeploymentsForAgent returns deployments targeting a group the agent
// belongs to, newest first.
func (s *SoftwareStore) ListDeploymentsForAgent(ctx context.Context, scope policy.Scope, agentID uuid.UUID) ([]*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE tenant_id = $1
		  AND device_group_id IN (
			SELECT group_id FROM device_group_members WHERE agent_id = $2
		  )
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, scope.TenantID, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments for agent: %w", err)
	}
	defer rows.Close()

	return collectDeployments(rows)
}

func collectDeployments(rows pgx.Rows) ([]*models.Deployment, error) {
	var deployments []*models.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		deployments = append(deployments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployments: %w", err)
	}

	return deployments, nil
}

// ListResults returns deployment results for the scope's tenant, newest first.
func (s *SoftwareStore) ListResults(ctx context.Context, scope policy.Scope) ([]*models.DeploymentResult, error) {
	query := `
		SELECT result_id, tenant_id, deployment_id, agent_id, status, detail, created_at
		FROM deployment_results
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment results: %w", err)
	}
	defer rows.Close()

	var results []*models.DeploymentResult
	for rows.Next() {
		var r models.DeploymentResult
		if err := rows.Scan(&r.ResultID, &r.TenantID, &r.DeploymentID, &r.AgentID, &r.Status, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deployment result: %w", err)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployment results: %w", err)
	}

	return results, nil
}

// AppendResult records a per-device deployment outcome.
func (s *SoftwareStore) AppendResult(ctx context.Context, result *models.DeploymentResult) error {
	query := `
		INSERT INTO deployment_results (
			result_id, tenant_id, deployment_id, agent_id, status, detail, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		result.ResultID,
		result.TenantID,
		result.DeploymentID,
		result.AgentID,
		result.Status,
		result.Detail,
		result.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrDeploymentNotFound
		}
		return fmt.Errorf("failed to append deployment result: %w", err)
	}

	return nil
}
