package commands

import (
	"context"
	"fmt"

	"github.com/neyraq/portal/internal/logger"
	postgresstore "github.com/neyraq/portal/internal/store/postgres"
)

type MigrateCmd struct {
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pool, err := c.Postgres.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Migrations applied")
	return nil
}
