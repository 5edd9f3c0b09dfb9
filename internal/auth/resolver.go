package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store"
)

// SessionCookieName is the name of the opaque session cookie. The cookie
// value is the session id only; all session state lives server-side.
const SessionCookieName = "portal_session"

// Resolver turns an incoming request into an authenticated principal.
// It supports both browser sessions (opaque cookie) and API clients
// (bearer JWT), trying the Authorization header first. In both paths the
// principal row is loaded fresh from the store - tenant id, tenant type,
// and persona role are never taken from anything the client sent.
type Resolver struct {
	sessions   store.SessionStore
	principals store.PrincipalStore
	signer     *JWTSigner
	sessionTTL time.Duration
}

// NewResolver creates a resolver backed by the given stores. The signer may
// be nil, which disables the bearer token path.
func NewResolver(sessions store.SessionStore, principals store.PrincipalStore, signer *JWTSigner, sessionTTL time.Duration) *Resolver {
	return &Resolver{
		sessions:   sessions,
		principals: principals,
		signer:     signer,
		sessionTTL: sessionTTL,
	}
}

// Resolve authenticates the request and returns the principal.
// Returns policy.ErrUnauthenticated if no credential is present or the
// credential is invalid, expired, or refers to a deleted principal.
func (r *Resolver) Resolve(req *http.Request) (*models.Principal, error) {
	ctx := req.Context()

	// Bearer token present means API client auth; don't fall back to the
	// cookie if the token is bad.
	authHeader := req.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if r.signer == nil {
			return nil, policy.ErrUnauthenticated
		}

		principalID, err := r.signer.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Msg("Bearer token verification failed")
			return nil, policy.ErrUnauthenticated
		}

		return r.loadPrincipal(ctx, principalID)
	}

	cookie, err := req.Cookie(SessionCookieName)
	if err != nil {
		return nil, policy.ErrUnauthenticated
	}

	sessionID, err := uuid.Parse(cookie.Value)
	if err != nil {
		log.Debug().Msg("Malformed session cookie")
		return nil, policy.ErrUnauthenticated
	}

	session, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil, policy.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := r.sessions.UpdateLastUsed(ctx, session.SessionID); err != nil {
		log.Debug().Err(err).Msg("Failed to update session last used")
	}

	return r.loadPrincipal(ctx, session.PrincipalID)
}

func (r *Resolver) loadPrincipal(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	principal, err := r.principals.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			return nil, policy.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	if err := principal.Validate(); err != nil {
		log.Error().Err(err).
			Str("principal_id", principal.PrincipalID.String()).
			Msg("Stored principal fails validation")
		return nil, policy.ErrUnauthenticated
	}

	return principal, nil
}

// Login validates the email, creates a session row, and returns the session
// with the resolved principal. Authentication is delegated to the identity
// provider upstream; by the time Login runs, possession of the email is
// considered proven.
func (r *Resolver) Login(ctx context.Context, email, userAgent, ipAddress string) (*models.Session, *models.Principal, error) {
	principal, err := r.principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			return nil, nil, policy.ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("failed to look up principal: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		SessionID:   uuid.Must(uuid.NewV7()),
		PrincipalID: principal.PrincipalID,
		TenantID:    principal.TenantID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.sessionTTL),
		LastUsedAt:  now,
		UserAgent:   userAgent,
		IPAddress:   ipAddress,
	}

	if err := r.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("principal_id", principal.PrincipalID.String()).
		Str("tenant_id", principal.TenantID.String()).
		Str("persona_role", string(principal.PersonaRole)).
		Msg("Login succeeded")

	return session, principal, nil
}

// Logout deletes the session referenced by the request's cookie. Missing or
// already-deleted sessions are not an error; logout is idempotent.
func (r *Resolver) Logout(req *http.Request) error {
	cookie, err := req.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}

	sessionID, err := uuid.Parse(cookie.Value)
	if err != nil {
		return nil
	}

	if err := r.sessions.Delete(req.Context(), sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// SetSessionCookie writes the opaque session cookie for a session.
func SetSessionCookie(w http.ResponseWriter, session *models.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.SessionID.String(),
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
