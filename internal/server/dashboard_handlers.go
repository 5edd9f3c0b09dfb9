package server

import (
	"net/http"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
)

type usageResponse struct {
	Plan          string `json:"plan"`
	TokensUsed    int64  `json:"tokensUsed"`
	TokensQuota   int64  `json:"tokensQuota"`
	ThrottleState string `json:"throttleState"`
}

type individualDashboard struct {
	View        viewResponse     `json:"view"`
	Devices     []agentResponse  `json:"devices"`
	OpenTickets []ticketResponse `json:"openTickets"`
	Usage       usageResponse    `json:"usage"`
}

type organizationDashboard struct {
	View              viewResponse         `json:"view"`
	FleetSize         int                  `json:"fleetSize"`
	FleetOnline       int                  `json:"fleetOnline"`
	OpenTickets       []ticketResponse     `json:"openTickets"`
	ActiveDeployments []deploymentResponse `json:"activeDeployments"`
}

const dashboardTicketLimit = 10

// handleDashboard returns the persona-shaped landing payload. The view
// selection decides the shape: individuals get their own devices, tickets,
// and plan usage; organizations get fleet and rollout summaries.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())
	view := policy.SelectView(principal)

	ticketScope, err := policy.ScopeFilter(principal, policy.KindTicket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tickets, err := s.stores.Tickets.List(r.Context(), ticketScope, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var openTickets []ticketResponse
	for _, t := range tickets {
		if t.Status.IsOpen() {
			openTickets = append(openTickets, ticketPayload(t))
		}
		if len(openTickets) == dashboardTicketLimit {
			break
		}
	}
	if openTickets == nil {
		openTickets = []ticketResponse{}
	}

	agentScope, err := policy.ScopeFilter(principal, policy.KindAgent)
	if err != nil {
		writeError(w, r, err)
		return
	}

	agents, err := s.stores.Agents.List(r.Context(), agentScope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if view.Variant == policy.ViewIndividual {
		devices := make([]agentResponse, 0, len(agents))
		for _, a := range agents {
			devices = append(devices, agentPayload(a))
		}

		writeJSON(w, http.StatusOK, individualDashboard{
			View:        viewPayload(view),
			Devices:     devices,
			OpenTickets: openTickets,
			Usage: usageResponse{
				Plan:          string(principal.Plan),
				TokensUsed:    principal.TokensUsedPeriod,
				TokensQuota:   principal.TokensQuotaPeriod,
				ThrottleState: string(principal.ThrottleState),
			},
		})
		return
	}

	online := 0
	for _, a := range agents {
		if a.Status == models.AgentOnline {
			online++
		}
	}

	deploymentScope, err := policy.ScopeFilter(principal, policy.KindDeployment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deployments, err := s.stores.Software.ListDeployments(r.Context(), deploymentScope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	active := []deploymentResponse{}
	for _, d := range deployments {
		if d.Status.IsActive() {
			active = append(active, deploymentPayload(d))
		}
	}

	writeJSON(w, http.StatusOK, organizationDashboard{
		View:              viewPayload(view),
		FleetSize:         len(agents),
		FleetOnline:       online,
		OpenTickets:       openTickets,
		ActiveDeployments: active,
	})
}
