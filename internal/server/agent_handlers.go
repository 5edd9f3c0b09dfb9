package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type agentResponse struct {
	AgentID      string   `json:"agentId"`
	OwnerUserID  string   `json:"ownerUserId"`
	DeviceName   string   `json:"deviceName"`
	OSVersion    string   `json:"osVersion"`
	AgentVersion string   `json:"agentVersion"`
	Status       string   `json:"status"`
	LastSeenAt   *string  `json:"lastSeenAt"`
	Tags         []string `json:"tags"`
}

func agentPayload(a *models.Agent) agentResponse {
	resp := agentResponse{
		AgentID:      a.AgentID.String(),
		OwnerUserID:  a.OwnerUserID.String(),
		DeviceName:   a.DeviceName,
		OSVersion:    a.OSVersion,
		AgentVersion: a.AgentVersion,
		Status:       string(a.Status),
		Tags:         a.Tags,
	}
	if a.LastSeenAt != nil {
		s := a.LastSeenAt.Format(time.RFC3339)
		resp.LastSeenAt = &s
	}
	return resp
}

type agentEventResponse struct {
	EventType string `json:"eventType"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// handleListAgents returns the device fleet visible to the caller: own
// devices for individual tenants, the whole fleet for organizations.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindAgent)
	if err != nil {
		writeError(w, r, err)
		return
	}

	agents, err := s.stores.Agents.List(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentPayload(a))
	}

	writeJSON(w, http.StatusOK, map[string]any{"agents": out})
}

// loadVisibleAgent fetches an agent and hides it behind 404 when it falls
// outside the caller's read scope.
func (s *Server) loadVisibleAgent(r *http.Request, principal *models.Principal, id string) (*models.Agent, error) {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return nil, policy.ErrNotFound
	}

	scope, err := policy.ScopeFilter(principal, policy.KindAgent)
	if err != nil {
		return nil, err
	}

	agent, err := s.stores.Agents.Get(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, store.ErrAgentNotFound) {
			return nil, policy.ErrNotFound
		}
		return nil, err
	}

	if !scope.Matches(agent.TenantID, agent.OwnerUserID) {
		return nil, policy.ErrNotFound
	}

	return agent, nil
}

const recentEventLimit = 20

// handleGetAgent returns a single device with its recent activity.
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	agent, err := s.loadVisibleAgent(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	events, err := s.stores.Agents.RecentEvents(r.Context(), agent.AgentID, recentEventLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	eventsOut := make([]agentEventResponse, 0, len(events))
	for _, e := range events {
		eventsOut = append(eventsOut, agentEventResponse{
			EventType: e.EventType,
			Message:   e.Message,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agent":  agentPayload(agent),
		"events": eventsOut,
	})
}

// handleAgentDeployments returns the deployments targeting a device.
// Deployments are an organization feature, so individual tenants get 403
// before any lookup happens.
func (s *Server) handleAgentDeployments(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindDeployment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	agent, err := s.loadVisibleAgent(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	deployments, err := s.stores.Software.ListDeploymentsForAgent(r.Context(), scope, agent.AgentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]deploymentResponse, 0, len(deployments))
	for _, d := range deployments {
		out = append(out, deploymentPayload(d))
	}

	writeJSON(w, http.StatusOK, map[string]any{"deployments": out})
}
