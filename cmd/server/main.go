package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/sgcombinator/web/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool     `help:"Enable debug logging."`
		EnvFile []string `help:"env files to load before reading the environment" type:"path" default:".env"`
		Version kong.VersionFlag

		Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Start the web server"`
		Routes  commands.RoutesCmd  `cmd:"" help:"Print the effective access guard route table"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply profile store migrations"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("server"),
		kong.Description("SG Combinator web server"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, EnvFiles: cli.EnvFile, Version: version})
	cmd.FatalIfErrorf(err)
}
