package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type packageResponse struct {
	PackageID      string `json:"packageId"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Type           string `json:"type"`
	RebootBehavior string `json:"rebootBehavior"`
}

func packagePayload(p *models.Package) packageResponse {
	return packageResponse{
		PackageID:      p.PackageID.String(),
		Name:           p.Name,
		Version:        p.Version,
		Type:           p.Type,
		RebootBehavior: p.RebootBehavior,
	}
}

type deviceGroupResponse struct {
	GroupID  string   `json:"groupId"`
	Name     string   `json:"name"`
	AgentIDs []string `json:"agentIds"`
}

func deviceGroupPayload(g *models.DeviceGroup) deviceGroupResponse {
	agentIDs := make([]string, 0, len(g.AgentIDs))
	for _, id := range g.AgentIDs {
		agentIDs = append(agentIDs, id.String())
	}
	return deviceGroupResponse{
		GroupID:  g.GroupID.String(),
		Name:     g.Name,
		AgentIDs: agentIDs,
	}
}

type deploymentResponse struct {
	DeploymentID    string  `json:"deploymentId"`
	Name            string  `json:"name"`
	PackageID       string  `json:"packageId"`
	DeviceGroupID   string  `json:"deviceGroupId"`
	RolloutStrategy string  `json:"rolloutStrategy"`
	Status          string  `json:"status"`
	StartTime       *string `json:"startTime"`
}

func deploymentPayload(d *models.Deployment) deploymentResponse {
	resp := deploymentResponse{
		DeploymentID:    d.DeploymentID.String(),
		Name:            d.Name,
		PackageID:       d.PackageID.String(),
		DeviceGroupID:   d.DeviceGroupID.String(),
		RolloutStrategy: d.RolloutStrategy,
		Status:          string(d.Status),
	}
	if d.StartTime != nil {
		s := d.StartTime.Format(time.RFC3339)
		resp.StartTime = &s
	}
	return resp
}

// handleSoftwareOverview returns the tenant's packages, device groups, and
// deployments. The whole feature is organization-only: individual tenants
// get 403, not an empty payload.
func (s *Server) handleSoftwareOverview(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindPackage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	packages, err := s.stores.Software.ListPackages(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	groups, err := s.stores.Software.ListDeviceGroups(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deployments, err := s.stores.Software.ListDeployments(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	packagesOut := make([]packageResponse, 0, len(packages))
	for _, p := range packages {
		packagesOut = append(packagesOut, packagePayload(p))
	}
	groupsOut := make([]deviceGroupResponse, 0, len(groups))
	for _, g := range groups {
		groupsOut = append(groupsOut, deviceGroupPayload(g))
	}
	deploymentsOut := make([]deploymentResponse, 0, len(deployments))
	for _, d := range deployments {
		deploymentsOut = append(deploymentsOut, deploymentPayload(d))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"packages":     packagesOut,
		"deviceGroups": groupsOut,
		"deployments":  deploymentsOut,
	})
}

type createPackageRequest struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Type           string `json:"type"`
	RebootBehavior string `json:"rebootBehavior"`
}

// handleCreatePackage registers a software package for distribution.
func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if _, err := policy.ScopeFilter(principal, policy.KindPackage); err != nil {
		writeError(w, r, err)
		return
	}
	if err := policy.RequirePermission(r.Context(), policy.PermSoftwareManage); err != nil {
		writeError(w, r, err)
		return
	}

	var req createPackageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, policy.Invalid("name", "name is required"))
		return
	}
	if strings.TrimSpace(req.Version) == "" {
		writeError(w, r, policy.Invalid("version", "version is required"))
		return
	}

	rebootBehavior := req.RebootBehavior
	if rebootBehavior == "" {
		rebootBehavior = "never"
	}

	pkg := &models.Package{
		PackageID:      uuid.Must(uuid.NewV7()),
		TenantID:       principal.TenantID,
		Name:           strings.TrimSpace(req.Name),
		Version:        strings.TrimSpace(req.Version),
		Type:           req.Type,
		RebootBehavior: rebootBehavior,
		CreatedAt:      time.Now(),
	}

	if err := s.stores.Software.CreatePackage(r.Context(), pkg); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, packagePayload(pkg))
}

type createDeviceGroupRequest struct {
	Name     string   `json:"name"`
	AgentIDs []string `json:"agentIds"`
}

// handleCreateDeviceGroup creates a deployment target from a set of devices.
// Every member device must belong to the caller's tenant.
func (s *Server) handleCreateDeviceGroup(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if _, err := policy.ScopeFilter(principal, policy.KindDeviceGroup); err != nil {
		writeError(w, r, err)
		return
	}
	if err := policy.RequirePermission(r.Context(), policy.PermSoftwareManage); err != nil {
		writeError(w, r, err)
		return
	}

	var req createDeviceGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, policy.Invalid("name", "name is required"))
		return
	}

	agentIDs := make([]uuid.UUID, 0, len(req.AgentIDs))
	for _, raw := range req.AgentIDs {
		agent, err := s.loadVisibleAgent(r, principal, raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		agentIDs = append(agentIDs, agent.AgentID)
	}

	group := &models.DeviceGroup{
		GroupID:   uuid.Must(uuid.NewV7()),
		TenantID:  principal.TenantID,
		Name:      strings.TrimSpace(req.Name),
		AgentIDs:  agentIDs,
		CreatedAt: time.Now(),
	}

	if err := s.stores.Software.CreateDeviceGroup(r.Context(), group); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deviceGroupPayload(group))
}

type createDeploymentRequest struct {
	Name            string `json:"name"`
	PackageID       string `json:"packageId"`
	DeviceGroupID   string `json:"deviceGroupId"`
	RolloutStrategy string `json:"rolloutStrategy"`
}

// handleCreateDeployment rolls a package out to a device group. Both the
// package and the group must belong to the caller's tenant; references
// into other tenants read as 404.
func (s *Server) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if _, err := policy.ScopeFilter(principal, policy.KindDeployment); err != nil {
		writeError(w, r, err)
		return
	}
	if err := policy.RequirePermission(r.Context(), policy.PermSoftwareManage); err != nil {
		writeError(w, r, err)
		return
	}

	var req createDeploymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, policy.Invalid("name", "name is required"))
		return
	}

	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		writeError(w, r, policy.Invalid("packageId", "invalid package id"))
		return
	}
	groupID, err := uuid.Parse(req.DeviceGroupID)
	if err != nil {
		writeError(w, r, policy.Invalid("deviceGroupId", "invalid device group id"))
		return
	}

	pkg, err := s.stores.Software.GetPackage(r.Context(), packageID)
	if err != nil {
		if errors.Is(err, store.ErrPackageNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, r, err)
		return
	}
	if pkg.TenantID != principal.TenantID {
		notFound(w, r)
		return
	}

	group, err := s.stores.Software.GetDeviceGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, store.ErrDeviceGroupNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, r, err)
		return
	}
	if group.TenantID != principal.TenantID {
		notFound(w, r)
		return
	}

	rolloutStrategy := req.RolloutStrategy
	if rolloutStrategy == "" {
		rolloutStrategy = "immediate"
	}

	now := time.Now()
	deployment := &models.Deployment{
		DeploymentID:    uuid.Must(uuid.NewV7()),
		TenantID:        principal.TenantID,
		Name:            strings.TrimSpace(req.Name),
		PackageID:       pkg.PackageID,
		DeviceGroupID:   group.GroupID,
		RolloutStrategy: rolloutStrategy,
		Status:          models.DeploymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.stores.Software.CreateDeployment(r.Context(), deployment); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deploymentPayload(deployment))
}

type deploymentResultResponse struct {
	ResultID  string `json:"resultId"`
	AgentID   string `json:"agentId"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
	CreatedAt string `json:"createdAt"`
}

// loadTenantDeployment fetches a deployment and hides it behind 404 when it
// belongs to another tenant. The org-only feature check runs first.
func (s *Server) loadTenantDeployment(r *http.Request, principal *models.Principal, id string) (*models.Deployment, error) {
	if _, err := policy.ScopeFilter(principal, policy.KindDeployment); err != nil {
		return nil, err
	}

	deploymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, policy.ErrNotFound
	}

	deployment, err := s.stores.Software.GetDeployment(r.Context(), deploymentID)
	if err != nil {
		if errors.Is(err, store.ErrDeploymentNotFound) {
			return nil, policy.ErrNotFound
		}
		return nil, err
	}

	if deployment.TenantID != principal.TenantID {
		return nil, policy.ErrNotFound
	}

	return deployment, nil
}

// handleGetDeployment returns a deployment with its per-device results.
func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	deployment, err := s.loadTenantDeployment(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	scope, err := policy.ScopeFilter(principal, policy.KindDeploymentResult)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := s.stores.Software.ListResults(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resultsOut := make([]deploymentResultResponse, 0)
	for _, res := range results {
		if res.DeploymentID != deployment.DeploymentID {
			continue
		}
		resultsOut = append(resultsOut, deploymentResultResponse{
			ResultID:  res.ResultID.String(),
			AgentID:   res.AgentID.String(),
			Status:    res.Status,
			Detail:    res.Detail,
			CreatedAt: res.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deployment": deploymentPayload(deployment),
		"results":    resultsOut,
	})
}

type updateDeploymentRequest struct {
	Status string `json:"status"`
}

// deploymentTransitions lists the permitted status moves: a rollout starts,
// then finishes one way or the other. Completed and failed are terminal.
var deploymentTransitions = map[models.DeploymentStatus][]models.DeploymentStatus{
	models.DeploymentPending: {models.DeploymentRunning, models.DeploymentFailed},
	models.DeploymentRunning: {models.DeploymentCompleted, models.DeploymentFailed},
}

// handleUpdateDeployment moves a deployment through its lifecycle.
func (s *Server) handleUpdateDeployment(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermSoftwareManage); err != nil {
		writeError(w, r, err)
		return
	}

	deployment, err := s.loadTenantDeployment(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateDeploymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	next := models.DeploymentStatus(req.Status)
	allowed := false
	for _, candidate := range deploymentTransitions[deployment.Status] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, r, policy.Invalid("status", "invalid status transition"))
		return
	}

	if err := policy.AuthorizeMutation(principal, policy.KindDeployment, deployment.TenantID, uuid.Nil); err != nil {
		writeError(w, r, err)
		return
	}

	if next == models.DeploymentRunning && deployment.StartTime == nil {
		now := time.Now()
		deployment.StartTime = &now
	}
	deployment.Status = next
	deployment.UpdatedAt = time.Now()

	if err := s.stores.Software.UpdateDeployment(r.Context(), deployment); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deploymentPayload(deployment))
}

type createDeploymentResultRequest struct {
	AgentID string `json:"agentId"`
	Status  string `json:"status"`
	Detail  string `json:"detail"`
}

// handleCreateDeploymentResult records a per-device outcome for a deployment.
func (s *Server) handleCreateDeploymentResult(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermSoftwareManage); err != nil {
		writeError(w, r, err)
		return
	}

	deployment, err := s.loadTenantDeployment(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createDeploymentResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	switch req.Status {
	case "success", "failed", "pending":
	default:
		writeError(w, r, policy.Invalid("status", "status must be success, failed, or pending"))
		return
	}

	agent, err := s.loadVisibleAgent(r, principal, req.AgentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := policy.AuthorizeMutation(principal, policy.KindDeploymentResult, deployment.TenantID, uuid.Nil); err != nil {
		writeError(w, r, err)
		return
	}

	result := &models.DeploymentResult{
		ResultID:     uuid.Must(uuid.NewV7()),
		TenantID:     deployment.TenantID,
		DeploymentID: deployment.DeploymentID,
		AgentID:      agent.AgentID,
		Status:       req.Status,
		Detail:       req.Detail,
		CreatedAt:    time.Now(),
	}

	if err := s.stores.Software.AppendResult(r.Context(), result); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deploymentResultResponse{
		ResultID:  result.ResultID.String(),
		AgentID:   result.AgentID.String(),
		Status:    result.Status,
		Detail:    result.Detail,
		CreatedAt: result.CreatedAt.Format(time.RFC3339),
	})
}
