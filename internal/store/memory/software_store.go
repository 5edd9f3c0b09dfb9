package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

// SoftwareStore implements store.SoftwareStore using in-memory storage.
// This implementation is for testing and demo mode - data is lost on restart.
type SoftwareStore struct {
	mu sync.RWMutex

	packages    map[uuid.UUID]*models.Package
	groups      map[uuid.UUID]*models.DeviceGroup
	deployments map[uuid.UUID]*models.Deployment
	results     []*models.DeploymentResult
}

// NewSoftwareStore creates a new in-memory software distribution store.
func NewSoftwareStore() *SoftwareStore {
	return &SoftwareStore{
		packages:    make(map[uuid.UUID]*models.Package),
		groups:      make(map[uuid.UUID]*models.DeviceGroup),
		deployments: make(map[uuid.UUID]*models.Deployment),
	}
}

// CreatePackage registers a new software package in memory.
func (s *SoftwareStore) CreatePackage(ctx context.Context, pkg *models.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *pkg
	s.packages[pkg.PackageID] = &clone

	return nil
}

// ListPackages returns packages matching the scope, newest first.
func (s *SoftwareStore) ListPackages(ctx context.Context, scope policy.Scope) ([]*models.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Package
	for _, p := range s.packages {
		if p.TenantID != scope.TenantID {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// GetPackage retrieves a package by ID regardless of tenant.
func (s *SoftwareStore) GetPackage(ctx context.Context, packageID uuid.UUID) (*models.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pkg, exists := s.packages[packageID]
	if !exists {
		return nil, store.ErrPackageNotFound
	}

	clone := *pkg
	return &clone, nil
}

// CreateDeviceGroup creates a new device group in memory.
func (s *SoftwareStore) CreateDeviceGroup(ctx context.Context, group *models.DeviceGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *group
	clone.AgentIDs = slices.Clone(group.AgentIDs)
	s.groups[group.GroupID] = &clone

	return nil
}

// ListDeviceGroups returns device groups matching the scope, by name.
func (s *SoftwareStore) ListDeviceGroups(ctx context.Context, scope policy.Scope) ([]*models.DeviceGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.DeviceGroup
	for _, g := range s.groups {
		if g.TenantID != scope.TenantID {
			continue
		}
		clone := *g
		clone.AgentIDs = slices.Clone(g.AgentIDs)
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// GetDeviceGroup retrieves a device group by ID regardless of tenant.
func (s *SoftwareStore) GetDeviceGroup(ctx context.Context, groupID uuid.UUID) (*models.DeviceGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, exists := s.groups[groupID]
	if !exists {
		return nil, store.ErrDeviceGroupNotFound
	}

	clone := *group
	clone.AgentIDs = slices.Clone(group.AgentIDs)
	return &clone, nil
}

// CreateDeployment creates a new deployment in memory.
func (s *SoftwareStore) CreateDeployment(ctx context.Context, deployment *models.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *deployment
	s.deployments[deployment.DeploymentID] = &clone

	return nil
}

// ListDeployments returns deployments matching the scope, newest first.
func (s *SoftwareStore) ListDeployments(ctx context.Context, scope policy.Scope) ([]*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Deployment
	for _, d := range s.deployments {
		if d.TenantID != scope.TenantID {
			continue
		}
		clone := *d
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// GetDeployment retrieves a deployment by ID regardless of tenant.
func (s *SoftwareStore) GetDeployment(ctx context.Context, deploymentID uuid.UUID) (*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deployment, exists := s.deployments[deploymentID]
	if !exists {
		return nil, store.ErrDeploymentNotFound
	}

	clone := *deployment
	return &clone, nil
}

// UpdateDeployment updates an existing deployment.
func (s *SoftwareStore) UpdateDeployment(ctx context.Context, deployment *models.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deployments[deployment.DeploymentID]; !exists {
		return store.ErrDeploymentNotFound
	}

	deployment.UpdatedAt = time.Now()
	clone := *deployment
	s.deployments[deployment.DeploymentID] = &clone

	return nil
}

// ListDeploymentsForAgent returns deployments targeting a device group the
// agent belongs to.
func (s *SoftwareStore) ListDeploymentsForAgent(ctx context.Context, scope policy.Scope, agentID uuid.UUID) ([]*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberOf := make(map[uuid.UUID]bool)
	for _, g := range s.groups {
		if g.TenantID != scope.TenantID {
			continue
		}
		if slices.Contains(g.AgentIDs, agentID) {
			memberOf[g.GroupID] = true
		}
	}

	var result []*models.Deployment
	for _, d := range s.deployments {
		if d.TenantID != scope.TenantID || !memberOf[d.DeviceGroupID] {
			continue
		}
		clone := *d
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// ListResults returns deployment results matching the scope.
func (s *SoftwareStore) ListResults(ctx context.Context, scope policy.Scope) ([]*models.DeploymentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.DeploymentResult
	for _, r := range s.results {
		if r.TenantID != scope.TenantID {
			continue
		}
		clone := *r
		result = append(result, &clone)
	}

	return result, nil
}

// AppendResult records a per-device deployment outcome.
func (s *SoftwareStore) AppendResult(ctx context.Context, result *models.DeploymentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *result
	s.results = append(s.results, &clone)

	return nil
}
