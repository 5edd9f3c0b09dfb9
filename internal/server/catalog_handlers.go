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

type catalogItemResponse struct {
	ItemID           string `json:"itemId"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	IconURL          string `json:"iconUrl"`
	Category         string `json:"category"`
	RequiresApproval bool   `json:"requiresApproval"`
}

func catalogItemPayload(item *models.CatalogItem) catalogItemResponse {
	return catalogItemResponse{
		ItemID:           item.ItemID.String(),
		Type:             string(item.Type),
		Title:            item.Title,
		Description:      item.Description,
		IconURL:          item.IconURL,
		Category:         item.Category,
		RequiresApproval: item.RequiresApproval,
	}
}

type catalogRequestResponse struct {
	RequestID       string `json:"requestId"`
	ItemID          string `json:"itemId"`
	RequesterUserID string `json:"requesterUserId"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

func catalogRequestPayload(req *models.CatalogRequest) catalogRequestResponse {
	return catalogRequestResponse{
		RequestID:       req.RequestID.String(),
		ItemID:          req.ItemID.String(),
		RequesterUserID: req.RequesterUserID.String(),
		Status:          string(req.Status),
		CreatedAt:       req.CreatedAt.Format(time.RFC3339),
	}
}

// handleListCatalog returns the tenant's active store catalog. The catalog
// is tenant-wide: every member sees the same items.
func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindCatalogItem)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := s.stores.Catalog.ListItems(r.Context(), scope, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]catalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, catalogItemPayload(item))
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// handleListCatalogRequests returns the requests visible to the caller:
// own requests for individuals, all tenant requests for organizations.
func (s *Server) handleListCatalogRequests(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindCatalogRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}

	requests, err := s.stores.Catalog.ListRequests(r.Context(), scope, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]catalogRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, catalogRequestPayload(req))
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": out})
}

type createCatalogRequestRequest struct {
	ItemID string `json:"itemId"`
}

// handleCreateCatalogRequest raises a request for a catalog item. Items that
// don't need approval are approved immediately.
func (s *Server) handleCreateCatalogRequest(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermCatalogRequest); err != nil {
		writeError(w, r, err)
		return
	}

	var req createCatalogRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		writeError(w, r, policy.Invalid("itemId", "invalid item id"))
		return
	}

	item, err := s.stores.Catalog.GetItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, store.ErrCatalogItemNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, r, err)
		return
	}

	// Items in other tenants' catalogs read as absent.
	if item.TenantID != principal.TenantID || !item.Active {
		notFound(w, r)
		return
	}

	status := models.CatalogRequestApproved
	if item.RequiresApproval {
		status = models.CatalogRequestRequested
	}

	now := time.Now()
	request := &models.CatalogRequest{
		RequestID:       uuid.Must(uuid.NewV7()),
		TenantID:        principal.TenantID,
		ItemID:          item.ItemID,
		RequesterUserID: principal.PrincipalID,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.stores.Catalog.CreateRequest(r.Context(), request); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, catalogRequestPayload(request))
}

type updateCatalogRequestRequest struct {
	Status string `json:"status"`
}

// handleUpdateCatalogRequest approves or rejects a pending request.
// Restricted to personas holding catalog:approve (org admins).
func (s *Server) handleUpdateCatalogRequest(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermCatalogApprove); err != nil {
		writeError(w, r, err)
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, r)
		return
	}

	var req updateCatalogRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	status := models.CatalogRequestStatus(req.Status)
	if status != models.CatalogRequestApproved && status != models.CatalogRequestRejected {
		writeError(w, r, policy.Invalid("status", "status must be approved or rejected"))
		return
	}

	request, err := s.stores.Catalog.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, store.ErrCatalogRequestNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, r, err)
		return
	}

	// Hide cross-tenant requests, then guard the write.
	scope, err := policy.ScopeFilter(principal, policy.KindCatalogRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !scope.Matches(request.TenantID, request.RequesterUserID) {
		notFound(w, r)
		return
	}

	if request.Status != models.CatalogRequestRequested {
		writeError(w, r, policy.Invalid("status", "request is not pending"))
		return
	}

	if err := policy.AuthorizeMutation(principal, policy.KindCatalogRequest, request.TenantID, request.RequesterUserID); err != nil {
		writeError(w, r, err)
		return
	}

	request.Status = status
	request.UpdatedAt = time.Now()
	if err := s.stores.Catalog.UpdateRequest(r.Context(), request); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, catalogRequestPayload(request))
}
