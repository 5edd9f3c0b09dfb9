package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/neyraq/portal/internal/auth"
	"github.com/neyraq/portal/internal/logger"
	"github.com/neyraq/portal/internal/seed"
	"github.com/neyraq/portal/internal/server"
	"github.com/neyraq/portal/internal/store"
	memorystore "github.com/neyraq/portal/internal/store/memory"
	postgresstore "github.com/neyraq/portal/internal/store/postgres"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"PORTAL_LISTEN"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost:3000" env:"PORTAL_CORS_ORIGINS"`

	// Session configuration
	SessionTTL    time.Duration `help:"session TTL" default:"168h" env:"PORTAL_SESSION_TTL"`
	SecureCookies bool          `help:"set the Secure flag on session cookies" default:"true" negatable:"" env:"PORTAL_SECURE_COOKIES"`

	// Bearer token configuration (optional; disables the bearer path when unset)
	JWTSecret string        `help:"secret key for HMAC signing of bearer tokens" default:"" env:"PORTAL_JWT_SECRET"`
	JWTIssuer string        `help:"issuer claim for bearer tokens" default:"https://portal.neyraq.example" env:"PORTAL_JWT_ISSUER"`
	JWTTTL    time.Duration `help:"bearer token TTL" default:"1h" env:"PORTAL_JWT_TTL"`

	// Development and operational modes
	Demo bool `help:"seed demo tenants and principals on startup" default:"false" env:"PORTAL_DEMO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"PORTAL_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"PORTAL_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting portal server")

	var stores store.Stores

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create postgres pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		stores = store.Stores{
			Tenants:        postgresstore.NewTenantStore(pool),
			Principals:     postgresstore.NewPrincipalStore(pool),
			Sessions:       postgresstore.NewSessionStore(pool),
			Tickets:        postgresstore.NewTicketStore(pool),
			Agents:         postgresstore.NewAgentStore(pool),
			Software:       postgresstore.NewSoftwareStore(pool),
			Catalog:        postgresstore.NewCatalogStore(pool),
			PaymentMethods: postgresstore.NewPaymentMethodStore(pool),
		}
		log.Info().Msg("Using PostgreSQL stores")

	default:
		stores = store.Stores{
			Tenants:        memorystore.NewTenantStore(),
			Principals:     memorystore.NewPrincipalStore(),
			Sessions:       memorystore.NewSessionStore(),
			Tickets:        memorystore.NewTicketStore(),
			Agents:         memorystore.NewAgentStore(),
			Software:       memorystore.NewSoftwareStore(),
			Catalog:        memorystore.NewCatalogStore(),
			PaymentMethods: memorystore.NewPaymentMethodStore(),
		}
		log.Info().Msg("Using in-memory stores")
	}

	if c.Demo {
		fixtures, err := seed.Demo()
		if err != nil {
			return fmt.Errorf("failed to load demo fixtures: %w", err)
		}
		if err := fixtures.Apply(ctx, stores); err != nil {
			return fmt.Errorf("failed to apply demo fixtures: %w", err)
		}
		log.Info().Msg("Demo mode enabled - fixture accounts seeded")
	}

	var signer *auth.JWTSigner
	if c.JWTSecret != "" {
		var err error
		signer, err = auth.NewJWTSigner([]byte(c.JWTSecret), c.JWTIssuer, c.JWTTTL)
		if err != nil {
			return fmt.Errorf("failed to create token signer: %w", err)
		}
		log.Info().Str("issuer", c.JWTIssuer).Msg("Bearer token auth enabled")
	} else {
		log.Warn().Msg("No JWT secret configured - bearer token auth is disabled")
	}

	resolver := auth.NewResolver(stores.Sessions, stores.Principals, signer, c.SessionTTL)

	srv := server.NewServer(stores, resolver, server.Config{
		SecureCookies: c.SecureCookies,
		SessionTTL:    c.SessionTTL,
	})

	handler := withCORS(c.CORSOrigins, srv.Handler(log))
	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Msg("Listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// withCORS adds CORS support for browser clients on other origins. Credentials
// are allowed because the browser path authenticates with the session cookie.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return middleware.Handler(h)
}
