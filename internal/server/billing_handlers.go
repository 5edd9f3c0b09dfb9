package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/neyraq/portal/internal/billing"
	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type paymentMethodResponse struct {
	PaymentMethodID string `json:"paymentMethodId"`
	Brand           string `json:"brand"`
	Last4           string `json:"last4"`
	ExpMonth        int    `json:"expMonth"`
	ExpYear         int    `json:"expYear"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

func paymentMethodPayload(pm *models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		PaymentMethodID: pm.PaymentMethodID.String(),
		Brand:           pm.Brand,
		Last4:           pm.Last4,
		ExpMonth:        pm.ExpMonth,
		ExpYear:         pm.ExpYear,
		Status:          string(pm.Status),
		CreatedAt:       pm.CreatedAt.Format(time.RFC3339),
	}
}

// handleListPaymentMethods returns the stored cards visible to the caller.
func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	scope, err := policy.ScopeFilter(principal, policy.KindPaymentMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}

	methods, err := s.stores.PaymentMethods.List(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]paymentMethodResponse, 0, len(methods))
	for _, pm := range methods {
		out = append(out, paymentMethodPayload(pm))
	}

	writeJSON(w, http.StatusOK, map[string]any{"paymentMethods": out})
}

type createPaymentMethodRequest struct {
	CardNumber string `json:"cardNumber"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	Brand      string `json:"brand"`
}

// handleCreatePaymentMethod validates and stores a card reference. The raw
// number is validated, reduced to brand/last4/fingerprint, and discarded.
// Submitting the same card twice for a tenant returns 409.
func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermBillingManage); err != nil {
		writeError(w, r, err)
		return
	}

	var req createPaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	details, err := billing.ValidateCard(req.CardNumber, req.ExpMonth, req.ExpYear, req.Brand)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	pm := &models.PaymentMethod{
		PaymentMethodID: uuid.Must(uuid.NewV7()),
		TenantID:        principal.TenantID,
		OwnerUserID:     principal.PrincipalID,
		Brand:           details.Brand,
		Last4:           details.Last4,
		ExpMonth:        details.ExpMonth,
		ExpYear:         details.ExpYear,
		Fingerprint:     details.Fingerprint,
		Status:          models.PaymentMethodActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.stores.PaymentMethods.Create(r.Context(), pm); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, paymentMethodPayload(pm))
}

type updatePaymentMethodRequest struct {
	Status string `json:"status"`
}

// handleUpdatePaymentMethod deactivates (or reactivates) a stored card.
func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	principal, _ := policy.PrincipalFromContext(r.Context())

	if err := policy.RequirePermission(r.Context(), policy.PermBillingManage); err != nil {
		writeError(w, r, err)
		return
	}

	paymentMethodID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, r)
		return
	}

	var req updatePaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	status := models.PaymentMethodStatus(req.Status)
	if status != models.PaymentMethodActive && status != models.PaymentMethodInactive {
		writeError(w, r, policy.Invalid("status", "status must be active or inactive"))
		return
	}

	pm, err := s.stores.PaymentMethods.Get(r.Context(), paymentMethodID)
	if err != nil {
		if errors.Is(err, store.ErrPaymentMethodNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, r, err)
		return
	}

	scope, err := policy.ScopeFilter(principal, policy.KindPaymentMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !scope.Matches(pm.TenantID, pm.OwnerUserID) {
		notFound(w, r)
		return
	}

	if err := policy.AuthorizeMutation(principal, policy.KindPaymentMethod, pm.TenantID, pm.OwnerUserID); err != nil {
		writeError(w, r, err)
		return
	}

	pm.Status = status
	pm.UpdatedAt = time.Now()
	if err := s.stores.PaymentMethods.Update(r.Context(), pm); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentMethodPayload(pm))
}
