package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/redeclipse/mastersession/internal/api"
	"github.com/redeclipse/mastersession/internal/api/handler"
	"github.com/redeclipse/mastersession/internal/core/ports"
	"github.com/redeclipse/mastersession/internal/core/service"
	"github.com/redeclipse/mastersession/internal/infrastructure/db/memory"
	mongodb "github.com/redeclipse/mastersession/internal/infrastructure/db/mongo"
	redisdb "github.com/redeclipse/mastersession/internal/infrastructure/db/redis"
	"github.com/redeclipse/mastersession/internal/pkg/config"
	"github.com/redeclipse/mastersession/pkg/logger"
)

const (
	devJWTSecret    = "development-only-secret"
	shutdownTimeout = 10 * time.Second
)

var version = "dev" // set during build

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "masterd",
	Short:         "Master server for account sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `masterd serves account registration, login, logout and session lookup
for game clients, and the list of game servers that keep announcing
themselves.

Configuration is read from the environment:
  PORT, ENV, JWT_SECRET, LOG_LEVEL, STORAGE (memory|mongo), KEY_LIFETIME,
  SERVER_LIFETIME, MONGO_URI, MONGO_DB, REDIS_ADDR, REDIS_DB`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.LoadServer(ctx, envconfig.OsLookuper())
		if err != nil {
			return err
		}
		return serve(ctx, cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "masterd %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func serve(ctx context.Context, cfg *config.ServerConfig) error {
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "masterd",
	})

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	clock := clockwork.NewRealClock()
	e := api.NewRouter(api.Deps{
		Users:   service.NewUserService(store.users, store.keys, secret, cfg.KeyLifetime, clock, log),
		Servers: service.NewServerService(store.servers, cfg.ServerLifetime, clock, log),
		Log:     log,
		Pingers: store.pingers,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Str("version", version).Msg("master server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// storage holds the repositories of the configured backend.
type storage struct {
	users   ports.UserRepository
	keys    ports.KeyRepository
	servers ports.ServerRepository
	pingers []handler.Pinger
	close   func()
}

// openStorage connects the configured backends. close releases every
// connection that was opened.
func openStorage(ctx context.Context, cfg *config.ServerConfig, log zerolog.Logger) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, accounts are lost on restart")
		return &storage{
			users:   memory.NewUserRepository(),
			keys:    memory.NewKeyRepository(),
			servers: memory.NewServerRepository(),
			close:   func() {},
		}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	closeAll := func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		closeAll()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &storage{
		users:   users,
		keys:    redisdb.NewKeyRepository(rdb),
		servers: redisdb.NewServerRepository(rdb),
		pingers: []handler.Pinger{mongodb.Pinger{Client: client}, redisdb.Pinger{Client: rdb}},
		close:   closeAll,
	}, nil
}
