package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/neyraq/portal/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Migrate commands.MigrateCmd `cmd:"" help:"Run database migrations"`
		Seed    commands.SeedCmd    `cmd:"" help:"Apply seed fixtures to the database"`
		Token   commands.TokenCmd   `cmd:"" help:"Mint a bearer token for a principal"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
