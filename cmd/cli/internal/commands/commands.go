package commands

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgresstore "github.com/neyraq/portal/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

// PostgresFlags is the shared connection flag group for database commands.
type PostgresFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING" required:""`
}

func (f *PostgresFlags) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
		ConnString: f.ConnString,
		MaxConns:   2,
		MinConns:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}
