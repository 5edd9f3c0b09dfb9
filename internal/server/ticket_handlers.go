package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type ticketResponse struct {
	TicketID        string  `json:"ticketId"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Status          string  `json:"status"`
	Priority        string  `json:"priority"`
	RequesterUserID string  `json:"requesterUserId"`
	AssigneeUserID  *string `json:"assigneeUserId"`
	Source          string  `json:"source"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func ticketPayload(t *models.Ticket) ticketResponse {
	resp := ticketResponse{
		TicketID:        t.TicketID.String(),
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		RequesterUserID: t.RequesterUserID.String(),
		Source:          string(t.Source),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
	if t.AssigneeUserID != nil {
		s := t.AssigneeUserID.String()
		resp.AssigneeUserID = &s
	}
	return resp
}

func ticketsPayload(tickets []*models.Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketPayload(t))
	}
	return out
}

// handleListTickets returns the tickets visible to the caller: own tickets
// for individual tenants, the whole tenant's tickets for organizations.
func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindTicket)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, r, policy.Invalid("limit", "invalid limit"))
			return
		}
	}

	tickets, err := s.stores.Tickets.List(r.Context(), scope, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tickets": ticketsPayload(tickets)})
}

type createTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// handleCreateTicket opens a ticket owned by the caller.
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermTicketsCreate); err != nil {
		writeError(w, r, err)
		return
	}

	var req createTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, r, policy.Invalid("title", "title is required"))
		return
	}

	priority := models.TicketPriorityNormal
	if req.Priority != "" {
		priority = models.TicketPriority(req.Priority)
		if !priority.Valid() {
			writeError(w, r, policy.Invalid("priority", "unknown priority"))
			return
		}
	}

	now := time.Now()
	ticket := &models.Ticket{
		TicketID:        uuid.Must(uuid.NewV7()),
		TenantID:        principal.TenantID,
		Title:           title,
		Description:     req.Description,
		Status:          models.TicketStatusNew,
		Priority:        priority,
		RequesterUserID: principal.PrincipalID,
		Source:          models.TicketSourcePortal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.stores.Tickets.Create(r.Context(), ticket); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticketPayload(ticket))
}

// loadVisibleTicket fetches a ticket and hides it behind 404 when it falls
// outside the caller's read scope.
func (s *Server) loadVisibleTicket(r *http.Request, principal *models.Principal, id string) (*models.Ticket, error) {
	ticketID, err := uuid.Parse(id)
	if err != nil {
		return nil, policy.ErrNotFound
	}

	scope, err := policy.ScopeFilter(principal, policy.KindTicket)
	if err != nil {
		return nil, err
	}

	ticket, err := s.stores.Tickets.Get(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) {
			return nil, policy.ErrNotFound
		}
		return nil, err
	}

	if !scope.Matches(ticket.TenantID, ticket.RequesterUserID) {
		return nil, policy.ErrNotFound
	}

	return ticket, nil
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	ticket, err := s.loadVisibleTicket(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketPayload(ticket))
}

type updateTicketRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	AssigneeUserID *string `json:"assigneeUserId"`
}

// handleUpdateTicket patches a ticket. The mutation guard runs against the
// stored row's actual tenant and owner, as the last check before the write.
func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	ticket, err := s.loadVisibleTicket(r, principal, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := policy.RequirePermission(r.Context(), policy.PermTicketsManage); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, r, policy.Invalid("title", "title is required"))
			return
		}
		ticket.Title = title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		if !status.Valid() {
			writeError(w, r, policy.Invalid("status", "unknown status"))
			return
		}
		ticket.Status = status
	}
	if req.Priority != nil {
		priority := models.TicketPriority(*req.Priority)
		if !priority.Valid() {
			writeError(w, r, policy.Invalid("priority", "unknown priority"))
			return
		}
		ticket.Priority = priority
	}
	if req.AssigneeUserID != nil {
		// Assignment is an organization workflow.
		view := policy.SelectView(principal)
		if !view.CanAssignWork {
			writeError(w, r, policy.ErrForbidden)
			return
		}
		if *req.AssigneeUserID == "" {
			ticket.AssigneeUserID = nil
		} else {
			assigneeID, err := uuid.Parse(*req.AssigneeUserID)
			if err != nil {
				writeError(w, r, policy.Invalid("assigneeUserId", "invalid assignee id"))
				return
			}
			ticket.AssigneeUserID = &assigneeID
		}
	}

	if err := policy.AuthorizeMutation(principal, policy.KindTicket, ticket.TenantID, ticket.RequesterUserID); err != nil {
		writeError(w, r, err)
		return
	}

	ticket.UpdatedAt = time.Now()
	if err := s.stores.Tickets.Update(r.Context(), ticket); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketPayload(ticket))
}
