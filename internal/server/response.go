package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. NotFound is returned for
// both absent and cross-tenant resources so the two are indistinguishable
// to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *policy.ValidationError

	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, policy.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, policy.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, store.ErrPaymentMethodExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "payment method already exists"})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// notFound hides a resource: used when an id-addressed row exists but falls
// outside the caller's scope.
func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, policy.ErrNotFound)
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return policy.Invalid("", "malformed request body")
	}
	return nil
}
