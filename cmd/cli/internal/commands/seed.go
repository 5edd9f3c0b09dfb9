package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/neyraq/portal/internal/logger"
	"github.com/neyraq/portal/internal/seed"
	"github.com/neyraq/portal/internal/store"
	postgresstore "github.com/neyraq/portal/internal/store/postgres"
)

type SeedCmd struct {
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
	File     string        `help:"YAML fixtures file (defaults to the embedded demo set)" type:"existingfile" optional:""`
}

func (c *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	fixtures, err := c.loadFixtures()
	if err != nil {
		return err
	}

	pool, err := c.Postgres.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := store.Stores{
		Tenants:        postgresstore.NewTenantStore(pool),
		Principals:     postgresstore.NewPrincipalStore(pool),
		Sessions:       postgresstore.NewSessionStore(pool),
		Tickets:        postgresstore.NewTicketStore(pool),
		Agents:         postgresstore.NewAgentStore(pool),
		Software:       postgresstore.NewSoftwareStore(pool),
		Catalog:        postgresstore.NewCatalogStore(pool),
		PaymentMethods: postgresstore.NewPaymentMethodStore(pool),
	}

	if err := fixtures.Apply(ctx, stores); err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}

	log.Info().Msg("Fixtures applied")
	return nil
}

func (c *SeedCmd) loadFixtures() (*seed.Fixtures, error) {
	if c.File == "" {
		return seed.Demo()
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	return seed.Parse(data)
}
