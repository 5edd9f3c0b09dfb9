package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/neyraq/portal/internal/auth"
	internalhttp "github.com/neyraq/portal/internal/http"
	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

type checkEmailRequest struct {
	Email string `json:"email"`
}

type checkEmailResponse struct {
	Exists bool `json:"exists"`
}

// handleCheckEmail reports whether an account exists for an email. Used by
// the login form to branch between sign-in and sign-up.
func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, r, policy.Invalid("email", "invalid email address"))
		return
	}

	_, err := s.stores.Principals.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			writeJSON(w, http.StatusOK, checkEmailResponse{Exists: false})
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkEmailResponse{Exists: true})
}

type loginRequest struct {
	Email string `json:"email"`
}

type principalResponse struct {
	PrincipalID string `json:"principalId"`
	TenantID    string `json:"tenantId"`
	TenantType  string `json:"tenantType"`
	PersonaRole string `json:"personaRole"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Plan        string `json:"plan"`
}

type viewResponse struct {
	Variant        string `json:"variant"`
	ShowFleet      bool   `json:"showFleet"`
	ShowSoftware   bool   `json:"showSoftware"`
	ShowUsage      bool   `json:"showUsage"`
	CanAssignWork  bool   `json:"canAssignWork"`
	CanApproveReqs bool   `json:"canApproveRequests"`
}

type meResponse struct {
	Principal principalResponse `json:"principal"`
	View      viewResponse      `json:"view"`
}

func principalPayload(p *models.Principal) principalResponse {
	return principalResponse{
		PrincipalID: p.PrincipalID.String(),
		TenantID:    p.TenantID.String(),
		TenantType:  string(p.TenantType),
		PersonaRole: string(p.PersonaRole),
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Plan:        string(p.Plan),
	}
}

func viewPayload(v policy.View) viewResponse {
	return viewResponse{
		Variant:        string(v.Variant),
		ShowFleet:      v.ShowFleet,
		ShowSoftware:   v.ShowSoftware,
		ShowUsage:      v.ShowUsage,
		CanAssignWork:  v.CanAssignWork,
		CanApproveReqs: v.CanApproveReqs,
	}
}

// handleLogin authenticates by email and sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, r, policy.Invalid("email", "invalid email address"))
		return
	}

	session, principal, err := s.resolver.Login(r.Context(), email,
		r.UserAgent(), internalhttp.ClientIPFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session, s.cfg.SecureCookies)

	writeJSON(w, http.StatusOK, meResponse{
		Principal: principalPayload(principal),
		View:      viewPayload(policy.SelectView(principal)),
	})
}

// handleLogout deletes the session and clears the cookie. Idempotent.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.Logout(r); err != nil {
		writeError(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, s.cfg.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the authenticated principal and its view selection.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, policy.ErrUnauthenticated)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Principal: principalPayload(principal),
		View:      viewPayload(policy.SelectView(principal)),
	})
}
