package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgcombinator/web/academy"
	"github.com/sgcombinator/web/chat"
	"github.com/sgcombinator/web/identity/oidcprovider"
	"github.com/sgcombinator/web/internal/config"
	"github.com/sgcombinator/web/internal/logger"
	"github.com/sgcombinator/web/profiles"
	"github.com/sgcombinator/web/profiles/postgres"
	"github.com/sgcombinator/web/profiles/rediscache"
	"github.com/sgcombinator/web/server"
)

type ServeCmd struct {
	ShutdownTimeout time.Duration `help:"time allowed for in-flight requests on shutdown" default:"10s"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	log := logger.Setup(globals.Debug || cfg.IsDev())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	displayAppname(cfg.GetAppName())
	log.Info().Str("version", globals.Version).Str("env", cfg.GetEnv()).Msg("Starting server")

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	provider, err := oidcprovider.New(ctx, oidcprovider.Config{
		IssuerURL:    cfg.GetIssuerURL(),
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		RedirectURL:  cfg.GetRedirectURL(),
		Scopes:       cfg.GetScopes(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up identity provider: %w", err)
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.GetDBAutoMigrate() {
		log.Info().Msg("Running profile store migrations")
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var store profiles.Store = postgres.NewStore(pool)
	if addr := cfg.GetRedisAddr(); addr != "" {
		client, err := rediscache.NewClient(ctx, addr, cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			// the cache is optional; the store still answers every lookup
			log.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, onboarding cache disabled")
		} else {
			defer client.Close()
			store = rediscache.New(store, client, cfg.GetProfileCacheTTL())
			log.Info().Str("addr", addr).Msg("Onboarding cache enabled")
		}
	}

	chatClient := chat.NewClient(cfg.GetChatBaseURL(),
		chat.WithTimeouts(cfg.GetChatTimeout(), cfg.GetChatSanityTimeout()))

	deps := server.Deps{
		Provider: provider,
		Profiles: store,
		Chat:     chatClient,
		Table:    table,
	}
	if key := cfg.GetOpenAIAPIKey(); key != "" {
		assistant, err := academy.New(academy.Config{
			APIKey:  key,
			BaseURL: cfg.GetOpenAIBaseURL(),
			Model:   cfg.GetAssistantModel(),
			Timeout: cfg.GetAssistantTimeout(),
		})
		if err != nil {
			return fmt.Errorf("failed to set up academy assistant: %w", err)
		}
		deps.Academy = assistant
		log.Info().Str("model", cfg.GetAssistantModel()).Msg("Academy assistant enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, academy assistant disabled")
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return err
	}

	httpServer := configureHTTPServer(cfg.GetPort(), srv)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func openPool(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, &postgres.PoolConfig{
		ConnString: cfg.GetDatabaseURL(),
		MaxConns:   cfg.GetDBMaxConns(),
		MinConns:   cfg.GetDBMinConns(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to profile store: %w", err)
	}
	return pool, nil
}
