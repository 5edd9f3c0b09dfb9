package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/auth"
	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/store"
	"github.com/neyraq/portal/internal/store/memory"
)

// fixture is a fully wired portal over memory stores with two tenants: an
// individual account and an organization with an admin, an agent persona,
// and a second plain member.
type fixture struct {
	server  *httptest.Server
	stores  store.Stores
	indiv   *models.Principal
	orgAdm  *models.Principal
	orgAgt  *models.Principal
	orgTen  *models.Tenant
	indivTn *models.Tenant
}

func principalFixture(t *testing.T, stores store.Stores, tenant *models.Tenant, role models.PersonaRole, name, email string) *models.Principal {
	t.Helper()

	now := time.Now()
	p := &models.Principal{
		PrincipalID: uuid.Must(uuid.NewV7()),
		TenantID:    tenant.TenantID,
		TenantType:  tenant.Type,
		PersonaRole: role,
		DisplayName: name,
		Email:       email,
		Plan:        models.PlanPro,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, stores.Principals.Create(context.Background(), p))
	return p
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	stores := store.Stores{
		Tenants:        memory.NewTenantStore(),
		Principals:     memory.NewPrincipalStore(),
		Sessions:       memory.NewSessionStore(),
		Tickets:        memory.NewTicketStore(),
		Agents:         memory.NewAgentStore(),
		Software:       memory.NewSoftwareStore(),
		Catalog:        memory.NewCatalogStore(),
		PaymentMethods: memory.NewPaymentMethodStore(),
	}

	now := time.Now()
	indivTenant := &models.Tenant{
		TenantID:    uuid.Must(uuid.NewV7()),
		Type:        models.TenantTypeIndividual,
		DisplayName: "Dana Solo",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	orgTenant := &models.Tenant{
		TenantID:    uuid.Must(uuid.NewV7()),
		Type:        models.TenantTypeOrganization,
		DisplayName: "Acme GmbH",
		Regions:     []string{"DE-Frankfurt"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, stores.Tenants.Create(ctx, indivTenant))
	require.NoError(t, stores.Tenants.Create(ctx, orgTenant))

	f := &fixture{
		stores:  stores,
		indivTn: indivTenant,
		orgTen:  orgTenant,
	}
	f.indiv = principalFixture(t, stores, indivTenant, models.PersonaIndividualUser, "Dana Solo", "dana@solo.example")
	f.orgAdm = principalFixture(t, stores, orgTenant, models.PersonaOrgAdmin, "Ada Admin", "ada@acme.example")
	f.orgAgt = principalFixture(t, stores, orgTenant, models.PersonaOrgAgent, "Max Agent", "max@acme.example")

	resolver := auth.NewResolver(stores.Sessions, stores.Principals, nil, time.Hour)
	srv := NewServer(stores, resolver, Config{SessionTTL: time.Hour})

	f.server = httptest.NewServer(srv.Handler(zerolog.Nop()))
	t.Cleanup(f.server.Close)

	return f
}

// login performs the login flow and returns the session cookie.
func (f *fixture) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	resp := f.do(t, nil, http.MethodPost, "/api/auth/login", map[string]string{"email": email})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie returned")
	return nil
}

func (f *fixture) do(t *testing.T, cookie *http.Cookie, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func seedTicket(t *testing.T, f *fixture, tenantID, requesterID uuid.UUID, title string) *models.Ticket {
	t.Helper()

	now := time.Now()
	ticket := &models.Ticket{
		TicketID:        uuid.Must(uuid.NewV7()),
		TenantID:        tenantID,
		Title:           title,
		Status:          models.TicketStatusNew,
		Priority:        models.TicketPriorityNormal,
		RequesterUserID: requesterID,
		Source:          models.TicketSourcePortal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.stores.Tickets.Create(context.Background(), ticket))
	return ticket
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)

	t.Run("check-email reports existing account", func(t *testing.T) {
		resp := f.do(t, nil, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "ada@acme.example"})
		body := decodeBody[map[string]bool](t, resp)
		require.True(t, body["exists"])
	})

	t.Run("check-email reports unknown account", func(t *testing.T) {
		resp := f.do(t, nil, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "ghost@acme.example"})
		body := decodeBody[map[string]bool](t, resp)
		require.False(t, body["exists"])
	})

	t.Run("check-email rejects malformed email", func(t *testing.T) {
		resp := f.do(t, nil, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "not-an-email"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login then me", func(t *testing.T) {
		cookie := f.login(t, "ada@acme.example")

		resp := f.do(t, cookie, http.MethodGet, "/api/me", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[map[string]map[string]any](t, resp)
		require.Equal(t, "org_admin", body["principal"]["personaRole"])
		require.Equal(t, "organization", body["view"]["variant"])
		require.Equal(t, true, body["view"]["canApproveRequests"])
	})

	t.Run("login unknown email gets 401", func(t *testing.T) {
		resp := f.do(t, nil, http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@acme.example"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me without session gets 401", func(t *testing.T) {
		resp := f.do(t, nil, http.MethodGet, "/api/me", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout invalidates the session", func(t *testing.T) {
		cookie := f.login(t, "dana@solo.example")

		resp := f.do(t, cookie, http.MethodPost, "/api/auth/logout", nil)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = f.do(t, cookie, http.MethodGet, "/api/me", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestTicketVisibility(t *testing.T) {
	f := newFixture(t)

	// An organization member's ticket and the individual's ticket, plus a
	// second org ticket from another member.
	orgTicket := seedTicket(t, f, f.orgTen.TenantID, f.orgAgt.PrincipalID, "VPN broken")
	seedTicket(t, f, f.orgTen.TenantID, f.orgAdm.PrincipalID, "Laptop order")
	indivTicket := seedTicket(t, f, f.indivTn.TenantID, f.indiv.PrincipalID, "My printer")

	adminCookie := f.login(t, "ada@acme.example")
	indivCookie := f.login(t, "dana@solo.example")

	t.Run("org admin sees all tenant tickets", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/tickets", nil)
		body := decodeBody[map[string][]ticketResponse](t, resp)
		require.Len(t, body["tickets"], 2)
	})

	t.Run("individual sees only own tickets", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/tickets", nil)
		body := decodeBody[map[string][]ticketResponse](t, resp)
		require.Len(t, body["tickets"], 1)
		require.Equal(t, indivTicket.TicketID.String(), body["tickets"][0].TicketID)
	})

	t.Run("cross-tenant ticket reads as 404", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/tickets/"+orgTicket.TicketID.String(), nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("nonexistent ticket is indistinguishable", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/tickets/"+uuid.Must(uuid.NewV7()).String(), nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("create ticket lands in own tenant", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPost, "/api/tickets", map[string]string{
			"title": "New issue", "priority": "high",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[ticketResponse](t, resp)
		require.Equal(t, "high", body.Priority)
		require.Equal(t, f.indiv.PrincipalID.String(), body.RequesterUserID)
	})

	t.Run("create rejects empty title", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPost, "/api/tickets", map[string]string{"title": "  "})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTicketMutationGuard(t *testing.T) {
	f := newFixture(t)

	orgTicket := seedTicket(t, f, f.orgTen.TenantID, f.orgAgt.PrincipalID, "VPN broken")
	indivTicket := seedTicket(t, f, f.indivTn.TenantID, f.indiv.PrincipalID, "My printer")

	adminCookie := f.login(t, "ada@acme.example")
	indivCookie := f.login(t, "dana@solo.example")

	t.Run("cross-tenant patch is rejected as 404", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPatch, "/api/tickets/"+orgTicket.TicketID.String(), map[string]string{
			"status": "closed",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		got, err := f.stores.Tickets.Get(context.Background(), orgTicket.TicketID)
		require.NoError(t, err)
		require.Equal(t, models.TicketStatusNew, got.Status)
	})

	t.Run("owner can update own ticket", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPatch, "/api/tickets/"+indivTicket.TicketID.String(), map[string]string{
			"status": "resolved",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[ticketResponse](t, resp)
		require.Equal(t, "resolved", body.Status)
	})

	t.Run("invalid status enum is 400", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPatch, "/api/tickets/"+indivTicket.TicketID.String(), map[string]string{
			"status": "sideways",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("individual cannot assign work", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPatch, "/api/tickets/"+indivTicket.TicketID.String(), map[string]string{
			"assigneeUserId": f.indiv.PrincipalID.String(),
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("org admin can assign within tenant", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPatch, "/api/tickets/"+orgTicket.TicketID.String(), map[string]string{
			"assigneeUserId": f.orgAgt.PrincipalID.String(),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[ticketResponse](t, resp)
		require.NotNil(t, body.AssigneeUserID)
		require.Equal(t, f.orgAgt.PrincipalID.String(), *body.AssigneeUserID)
	})
}

func seedAgent(t *testing.T, f *fixture, tenantID, ownerID uuid.UUID, name string, status models.AgentStatus) *models.Agent {
	t.Helper()

	now := time.Now()
	agent := &models.Agent{
		AgentID:     uuid.Must(uuid.NewV7()),
		TenantID:    tenantID,
		OwnerUserID: ownerID,
		DeviceName:  name,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.stores.Agents.Create(context.Background(), agent))
	return agent
}

func TestAgentVisibility(t *testing.T) {
	f := newFixture(t)

	seedAgent(t, f, f.orgTen.TenantID, f.orgAdm.PrincipalID, "acme-lt-001", models.AgentOnline)
	seedAgent(t, f, f.orgTen.TenantID, f.orgAgt.PrincipalID, "acme-lt-002", models.AgentOffline)
	own := seedAgent(t, f, f.indivTn.TenantID, f.indiv.PrincipalID, "dana-pc", models.AgentOnline)

	adminCookie := f.login(t, "ada@acme.example")
	indivCookie := f.login(t, "dana@solo.example")

	t.Run("org sees the whole fleet", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/agents", nil)
		body := decodeBody[map[string][]agentResponse](t, resp)
		require.Len(t, body["agents"], 2)
	})

	t.Run("individual sees only own devices", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/agents", nil)
		body := decodeBody[map[string][]agentResponse](t, resp)
		require.Len(t, body["agents"], 1)
		require.Equal(t, own.AgentID.String(), body["agents"][0].AgentID)
	})

	t.Run("agent detail includes recent events", func(t *testing.T) {
		require.NoError(t, f.stores.Agents.AppendEvent(context.Background(), &models.AgentEvent{
			AgentID:   own.AgentID,
			EventType: "status_change",
			Message:   "came online",
			CreatedAt: time.Now(),
		}))

		resp := f.do(t, indivCookie, http.MethodGet, "/api/agents/"+own.AgentID.String(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]json.RawMessage](t, resp)

		var events []agentEventResponse
		require.NoError(t, json.Unmarshal(body["events"], &events))
		require.Len(t, events, 1)
		require.Equal(t, "status_change", events[0].EventType)
	})

	t.Run("individual gets 403 for agent deployments", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/agents/"+own.AgentID.String()+"/deployments", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestSoftwareDistribution(t *testing.T) {
	f := newFixture(t)

	adminCookie := f.login(t, "ada@acme.example")
	agentCookie := f.login(t, "max@acme.example")
	indivCookie := f.login(t, "dana@solo.example")

	device := seedAgent(t, f, f.orgTen.TenantID, f.orgAdm.PrincipalID, "acme-lt-001", models.AgentOnline)

	t.Run("individual gets 403, not an empty list", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/software", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	var packageID, groupID string

	t.Run("admin registers a package", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPost, "/api/software/packages", map[string]string{
			"name": "7-Zip", "version": "24.08", "type": "msi",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[packageResponse](t, resp)
		packageID = body.PackageID
		require.Equal(t, "never", body.RebootBehavior)
	})

	t.Run("admin creates a device group", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPost, "/api/software/device-groups", map[string]any{
			"name": "Berlin laptops", "agentIds": []string{device.AgentID.String()},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[deviceGroupResponse](t, resp)
		groupID = body.GroupID
		require.Len(t, body.AgentIDs, 1)
	})

	t.Run("org agent persona can deploy", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPost, "/api/software/deployments", map[string]string{
			"name": "7-Zip rollout", "packageId": packageID, "deviceGroupId": groupID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[deploymentResponse](t, resp)
		require.Equal(t, "pending", body.Status)
		require.Equal(t, "immediate", body.RolloutStrategy)
	})

	t.Run("deployments target an agent through its group", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/agents/"+device.AgentID.String()+"/deployments", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string][]deploymentResponse](t, resp)
		require.Len(t, body["deployments"], 1)
	})

	t.Run("deployment against unknown package is 404", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPost, "/api/software/deployments", map[string]string{
			"name": "ghost", "packageId": uuid.Must(uuid.NewV7()).String(), "deviceGroupId": groupID,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var deploymentID string

	t.Run("deployment lifecycle", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/software", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]json.RawMessage](t, resp)

		var deployments []deploymentResponse
		require.NoError(t, json.Unmarshal(body["deployments"], &deployments))
		require.Len(t, deployments, 1)
		deploymentID = deployments[0].DeploymentID

		patchResp := f.do(t, adminCookie, http.MethodPatch, "/api/software/deployments/"+deploymentID, map[string]string{
			"status": "running",
		})
		require.Equal(t, http.StatusOK, patchResp.StatusCode)
		patched := decodeBody[deploymentResponse](t, patchResp)
		require.Equal(t, "running", patched.Status)
		require.NotNil(t, patched.StartTime)
	})

	t.Run("skipping lifecycle states is rejected", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPatch, "/api/software/deployments/"+deploymentID, map[string]string{
			"status": "pending",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("device results are recorded against the deployment", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPost, "/api/software/deployments/"+deploymentID+"/results", map[string]string{
			"agentId": device.AgentID.String(), "status": "success", "detail": "installed in 41s",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody[deploymentResultResponse](t, resp)
		require.Equal(t, "success", created.Status)

		detailResp := f.do(t, adminCookie, http.MethodGet, "/api/software/deployments/"+deploymentID, nil)
		require.Equal(t, http.StatusOK, detailResp.StatusCode)
		detail := decodeBody[map[string]json.RawMessage](t, detailResp)

		var results []deploymentResultResponse
		require.NoError(t, json.Unmarshal(detail["results"], &results))
		require.Len(t, results, 1)
		require.Equal(t, device.AgentID.String(), results[0].AgentID)
	})

	t.Run("overview lists everything", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/software", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]json.RawMessage](t, resp)

		var packages []packageResponse
		require.NoError(t, json.Unmarshal(body["packages"], &packages))
		require.Len(t, packages, 1)
	})
}

func seedCatalogItem(t *testing.T, f *fixture, tenantID uuid.UUID, title string, requiresApproval bool) *models.CatalogItem {
	t.Helper()

	item := &models.CatalogItem{
		ItemID:           uuid.Must(uuid.NewV7()),
		TenantID:         tenantID,
		Type:             models.CatalogItemSoftware,
		Title:            title,
		RequiresApproval: requiresApproval,
		Active:           true,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, f.stores.Catalog.CreateItem(context.Background(), item))
	return item
}

func TestCatalogFlow(t *testing.T) {
	f := newFixture(t)

	gated := seedCatalogItem(t, f, f.orgTen.TenantID, "Photoshop", true)
	free := seedCatalogItem(t, f, f.orgTen.TenantID, "VS Code", false)
	foreign := seedCatalogItem(t, f, f.indivTn.TenantID, "Dropbox", false)

	adminCookie := f.login(t, "ada@acme.example")
	agentCookie := f.login(t, "max@acme.example")

	t.Run("catalog is tenant-wide but tenant-scoped", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodGet, "/api/catalog", nil)
		body := decodeBody[map[string][]catalogItemResponse](t, resp)
		require.Len(t, body["items"], 2)
	})

	t.Run("request for approval-free item is approved immediately", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPost, "/api/catalog/requests", map[string]string{
			"itemId": free.ItemID.String(),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[catalogRequestResponse](t, resp)
		require.Equal(t, "approved", body.Status)
	})

	t.Run("cross-tenant item reads as 404", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPost, "/api/catalog/requests", map[string]string{
			"itemId": foreign.ItemID.String(),
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var pendingID string

	t.Run("gated item waits for approval", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPost, "/api/catalog/requests", map[string]string{
			"itemId": gated.ItemID.String(),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[catalogRequestResponse](t, resp)
		require.Equal(t, "requested", body.Status)
		pendingID = body.RequestID
	})

	t.Run("org agent cannot approve", func(t *testing.T) {
		resp := f.do(t, agentCookie, http.MethodPatch, "/api/catalog/requests/"+pendingID, map[string]string{
			"status": "approved",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("org admin approves", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPatch, "/api/catalog/requests/"+pendingID, map[string]string{
			"status": "approved",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[catalogRequestResponse](t, resp)
		require.Equal(t, "approved", body.Status)
	})

	t.Run("approving twice is rejected", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPatch, "/api/catalog/requests/"+pendingID, map[string]string{
			"status": "approved",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBillingFlow(t *testing.T) {
	f := newFixture(t)

	indivCookie := f.login(t, "dana@solo.example")
	adminCookie := f.login(t, "ada@acme.example")

	const visa = "4242 4242 4242 4242"
	expYear := time.Now().Year() + 2

	t.Run("stores a card as brand and last4 only", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPost, "/api/billing/payment-methods", map[string]any{
			"cardNumber": visa, "expMonth": 12, "expYear": expYear,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[paymentMethodResponse](t, resp)
		require.Equal(t, "visa", body.Brand)
		require.Equal(t, "4242", body.Last4)
	})

	t.Run("same card twice in a tenant is 409", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPost, "/api/billing/payment-methods", map[string]any{
			"cardNumber": "4242-4242-4242-4242", "expMonth": 6, "expYear": expYear,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("same card in another tenant is fine", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodPost, "/api/billing/payment-methods", map[string]any{
			"cardNumber": visa, "expMonth": 12, "expYear": expYear,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("expired card is 400", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodPost, "/api/billing/payment-methods", map[string]any{
			"cardNumber": "5555 5555 5555 4444", "expMonth": 1, "expYear": time.Now().Year() - 1,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("deactivation", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/billing/payment-methods", nil)
		listBody := decodeBody[map[string][]paymentMethodResponse](t, resp)
		require.Len(t, listBody["paymentMethods"], 1)
		id := listBody["paymentMethods"][0].PaymentMethodID

		patchResp := f.do(t, indivCookie, http.MethodPatch, "/api/billing/payment-methods/"+id, map[string]string{
			"status": "inactive",
		})
		require.Equal(t, http.StatusOK, patchResp.StatusCode)
		body := decodeBody[paymentMethodResponse](t, patchResp)
		require.Equal(t, "inactive", body.Status)
	})

	t.Run("cross-tenant patch is 404", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/billing/payment-methods", nil)
		listBody := decodeBody[map[string][]paymentMethodResponse](t, resp)
		require.Len(t, listBody["paymentMethods"], 1)
		id := listBody["paymentMethods"][0].PaymentMethodID

		patchResp := f.do(t, indivCookie, http.MethodPatch, "/api/billing/payment-methods/"+id, map[string]string{
			"status": "inactive",
		})
		defer patchResp.Body.Close()
		require.Equal(t, http.StatusNotFound, patchResp.StatusCode)
	})
}

func TestDashboardShapes(t *testing.T) {
	f := newFixture(t)

	seedAgent(t, f, f.orgTen.TenantID, f.orgAdm.PrincipalID, "acme-lt-001", models.AgentOnline)
	seedAgent(t, f, f.orgTen.TenantID, f.orgAgt.PrincipalID, "acme-lt-002", models.AgentOffline)
	seedAgent(t, f, f.indivTn.TenantID, f.indiv.PrincipalID, "dana-pc", models.AgentOnline)
	seedTicket(t, f, f.orgTen.TenantID, f.orgAgt.PrincipalID, "VPN broken")

	adminCookie := f.login(t, "ada@acme.example")
	indivCookie := f.login(t, "dana@solo.example")

	t.Run("individual shape has usage and devices", func(t *testing.T) {
		resp := f.do(t, indivCookie, http.MethodGet, "/api/dashboard", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]json.RawMessage](t, resp)

		require.Contains(t, body, "usage")
		require.Contains(t, body, "devices")
		require.NotContains(t, body, "fleetSize")

		var devices []agentResponse
		require.NoError(t, json.Unmarshal(body["devices"], &devices))
		require.Len(t, devices, 1)
	})

	t.Run("organization shape has fleet and deployments", func(t *testing.T) {
		resp := f.do(t, adminCookie, http.MethodGet, "/api/dashboard", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]json.RawMessage](t, resp)

		require.Contains(t, body, "fleetSize")
		require.Contains(t, body, "activeDeployments")
		require.NotContains(t, body, "usage")

		var fleetSize int
		require.NoError(t, json.Unmarshal(body["fleetSize"], &fleetSize))
		require.Equal(t, 2, fleetSize)

		var fleetOnline int
		require.NoError(t, json.Unmarshal(body["fleetOnline"], &fleetOnline))
		require.Equal(t, 1, fleetOnline)

		var openTickets []ticketResponse
		require.NoError(t, json.Unmarshal(body["openTickets"], &openTickets))
		require.Len(t, openTickets, 1)
	})
}

func TestUnknownAPIRouteRequiresAuth(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/definitely-not-a-route")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := f.login(t, "dana@solo.example")
	authed := f.do(t, cookie, http.MethodGet, "/api/definitely-not-a-route", nil)
	defer authed.Body.Close()
	require.Equal(t, http.StatusNotFound, authed.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
