package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

// Sentinel errors for software distribution store operations
var (
	ErrPackageNotFound     = errors.New("package not found")
	ErrDeviceGroupNotFound = errors.New("device group not found")
	ErrDeploymentNotFound  = errors.New("deployment not found")
)

// SoftwareStore defines the interface for the organization-only software
// distribution feature: packages, device groups, deployments, and per-device
// deployment results.
type SoftwareStore interface {
	// CreatePackage registers a new software package.
	CreatePackage(ctx context.Context, pkg *models.Package) error

	// ListPackages returns packages matching the scope, newest first.
	ListPackages(ctx context.Context, scope policy.Scope) ([]*models.Package, error)

	// GetPackage retrieves a package by ID regardless of tenant.
	// Returns ErrPackageNotFound if the package doesn't exist.
	GetPackage(ctx context.Context, packageID uuid.UUID) (*models.Package, error)

	// CreateDeviceGroup creates a new device group.
	CreateDeviceGroup(ctx context.Context, group *models.DeviceGroup) error

	// ListDeviceGroups returns device groups matching the scope, by name.
	ListDeviceGroups(ctx context.Context, scope policy.Scope) ([]*models.DeviceGroup, error)

	// GetDeviceGroup retrieves a device group by ID regardless of tenant.
	// Returns ErrDeviceGroupNotFound if the group doesn't exist.
	GetDeviceGroup(ctx context.Context, groupID uuid.UUID) (*models.DeviceGroup, error)

	// CreateDeployment creates a new deployment.
	CreateDeployment(ctx context.Context, deployment *models.Deployment) error

	// ListDeployments returns deployments matching the scope, newest first.
	ListDeployments(ctx context.Context, scope policy.Scope) ([]*models.Deployment, error)

	// GetDeployment retrieves a deployment by ID regardless of tenant.
	// Returns ErrDeploymentNotFound if the deployment doesn't exist.
	GetDeployment(ctx context.Context, deploymentID uuid.UUID) (*models.Deployment, error)

	// UpdateDeployment updates an existing deployment.
	// Returns ErrDeploymentNotFound if the deployment doesn't exist.
	UpdateDeployment(ctx context.Context, deployment *models.Deployment) error

	// ListDeploymentsForAgent returns deployments targeting a device group
	// the agent belongs to. Used by the per-agent deployments view.
	ListDeploymentsForAgent(ctx context.Context, scope policy.Scope, agentID uuid.UUID) ([]*models.Deployment, error)

	// ListResults returns deployment results matching the scope.
	ListResults(ctx context.Context, scope policy.Scope) ([]*models.DeploymentResult, error)

	// AppendResult records a per-device deployment outcome.
	AppendResult(ctx context.Context, result *models.DeploymentResult) error
}
