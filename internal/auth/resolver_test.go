package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/policy"
	"github.com/neyraq/portal/internal/store/memory"
)

func testResolver(t *testing.T) (*Resolver, *models.Principal) {
	t.Helper()

	principals := memory.NewPrincipalStore()
	sessions := memory.NewSessionStore()

	now := time.Now()
	principal := &models.Principal{
		PrincipalID: uuid.Must(uuid.NewV7()),
		TenantID:    uuid.Must(uuid.NewV7()),
		TenantType:  models.TenantTypeIndividual,
		PersonaRole: models.PersonaIndividualUser,
		DisplayName: "Demo User",
		Email:       "demo@portal.example",
		Plan:        models.PlanTrial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, principals.Create(context.Background(), principal))

	signer, err := NewJWTSigner(testSecret, "portal", time.Hour)
	require.NoError(t, err)

	return NewResolver(sessions, principals, signer, time.Hour), principal
}

func TestResolver_LoginAndResolveCookie(t *testing.T) {
	resolver, principal := testResolver(t)
	ctx := context.Background()

	session, got, err := resolver.Login(ctx, "demo@portal.example", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, principal.PrincipalID, got.PrincipalID)
	require.Equal(t, principal.TenantID, session.TenantID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.SessionID.String()})

	resolved, err := resolver.Resolve(req)
	require.NoError(t, err)
	require.Equal(t, principal.PrincipalID, resolved.PrincipalID)
	require.Equal(t, models.PersonaIndividualUser, resolved.PersonaRole)
}

func TestResolver_LoginUnknownEmail(t *testing.T) {
	resolver, _ := testResolver(t)

	_, _, err := resolver.Login(context.Background(), "nobody@portal.example", "", "")
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestResolver_ResolveBearerToken(t *testing.T) {
	resolver, principal := testResolver(t)

	token, err := resolver.signer.Issue(principal.PrincipalID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resolved, err := resolver.Resolve(req)
	require.NoError(t, err)
	require.Equal(t, principal.PrincipalID, resolved.PrincipalID)
}

func TestResolver_InvalidBearerDoesNotFallBack(t *testing.T) {
	resolver, principal := testResolver(t)
	ctx := context.Background()

	session, _, err := resolver.Login(ctx, principal.Email, "", "")
	require.NoError(t, err)

	// Valid cookie plus a garbage bearer token must still fail.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.SessionID.String()})

	_, err = resolver.Resolve(req)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestResolver_ResolveNoCredentials(t *testing.T) {
	resolver, _ := testResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)

	_, err := resolver.Resolve(req)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestResolver_ResolveUnknownSession(t *testing.T) {
	resolver, _ := testResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: uuid.Must(uuid.NewV7()).String()})

	_, err := resolver.Resolve(req)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestResolver_Logout(t *testing.T) {
	resolver, principal := testResolver(t)
	ctx := context.Background()

	session, _, err := resolver.Login(ctx, principal.Email, "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.SessionID.String()})

	require.NoError(t, resolver.Logout(req))

	// Session is gone; the cookie no longer resolves.
	getReq := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	getReq.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.SessionID.String()})
	_, err = resolver.Resolve(getReq)
	require.ErrorIs(t, err, policy.ErrUnauthenticated)

	// Logout is idempotent.
	require.NoError(t, resolver.Logout(req))
}

func TestRequireSession(t *testing.T) {
	resolver, principal := testResolver(t)
	ctx := context.Background()

	session, _, err := resolver.Login(ctx, principal.Email, "", "")
	require.NoError(t, err)

	var seen *models.Principal
	handler := RequireSession(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = policy.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("authenticated request passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.SessionID.String()})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, principal.PrincipalID, seen.PrincipalID)
	})

	t.Run("unauthenticated request gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
