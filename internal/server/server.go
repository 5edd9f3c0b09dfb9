// Package server implements the portal's HTTP API. Every authenticated
// handler follows the same shape: derive the scope or mutation decision from
// the principal in the context, let the store apply the scope, and map
// policy errors onto status codes at the boundary.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/neyraq/portal/internal/auth"
	internalhttp "github.com/neyraq/portal/internal/http"
	"github.com/neyraq/portal/internal/store"
)

// Config carries the server's HTTP-facing settings.
type Config struct {
	// SecureCookies sets the Secure flag on session cookies. Off only for
	// local development over plain HTTP.
	SecureCookies bool

	// SessionTTL is the lifetime of newly created sessions.
	SessionTTL time.Duration
}

// Server wires the stores, the session resolver, and the route handlers.
type Server struct {
	stores   store.Stores
	resolver *auth.Resolver
	cfg      Config
}

// NewServer creates a server around the given stores and resolver.
func NewServer(stores store.Stores, resolver *auth.Resolver, cfg Config) *Server {
	return &Server{
		stores:   stores,
		resolver: resolver,
		cfg:      cfg,
	}
}

// Handler returns the HTTP handler for the portal API.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public auth routes
	mux.HandleFunc("POST /api/auth/check-email", s.handleCheckEmail)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	// Authenticated routes
	api := http.NewServeMux()
	api.HandleFunc("GET /api/me", s.handleMe)
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)

	api.HandleFunc("GET /api/tickets", s.handleListTickets)
	api.HandleFunc("POST /api/tickets", s.handleCreateTicket)
	api.HandleFunc("GET /api/tickets/{id}", s.handleGetTicket)
	api.HandleFunc("PATCH /api/tickets/{id}", s.handleUpdateTicket)

	api.HandleFunc("GET /api/agents", s.handleListAgents)
	api.HandleFunc("GET /api/agents/{id}", s.handleGetAgent)
	api.HandleFunc("GET /api/agents/{id}/deployments", s.handleAgentDeployments)

	api.HandleFunc("GET /api/software", s.handleSoftwareOverview)
	api.HandleFunc("POST /api/software/packages", s.handleCreatePackage)
	api.HandleFunc("POST /api/software/device-groups", s.handleCreateDeviceGroup)
	api.HandleFunc("POST /api/software/deployments", s.handleCreateDeployment)
	api.HandleFunc("GET /api/software/deployments/{id}", s.handleGetDeployment)
	api.HandleFunc("PATCH /api/software/deployments/{id}", s.handleUpdateDeployment)
	api.HandleFunc("POST /api/software/deployments/{id}/results", s.handleCreateDeploymentResult)

	api.HandleFunc("GET /api/catalog", s.handleListCatalog)
	api.HandleFunc("GET /api/catalog/requests", s.handleListCatalogRequests)
	api.HandleFunc("POST /api/catalog/requests", s.handleCreateCatalogRequest)
	api.HandleFunc("PATCH /api/catalog/requests/{id}", s.handleUpdateCatalogRequest)

	api.HandleFunc("GET /api/billing/payment-methods", s.handleListPaymentMethods)
	api.HandleFunc("POST /api/billing/payment-methods", s.handleCreatePaymentMethod)
	api.HandleFunc("PATCH /api/billing/payment-methods/{id}", s.handleUpdatePaymentMethod)

	mux.Handle("/api/", auth.RequireSession(s.resolver)(api))

	var handler http.Handler = mux
	handler = internalhttp.RequestLogger(log)(handler)
	handler = internalhttp.ClientIPMiddleware()(handler)

	return handler
}
