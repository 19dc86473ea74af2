package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/sgcombinator/web/internal/logger"
	"github.com/sgcombinator/web/profiles/postgres"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	log := logger.Setup(globals.Debug)

	if cfg.GetDatabaseURL() == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Msg("Migrations applied")
	return nil
}
