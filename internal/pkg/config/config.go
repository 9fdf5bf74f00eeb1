package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends for accounts and session keys.
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// ServerConfig configures the master server (cmd/masterd).
type ServerConfig struct {
	Port           string        `env:"PORT,            default=8080"`
	Env            string        `env:"ENV,             default=development"`
	JWTSecret      string        `env:"JWT_SECRET"`
	LogLevel       string        `env:"LOG_LEVEL,       default=info"`
	Storage        string        `env:"STORAGE,         default=memory"`
	KeyLifetime    time.Duration `env:"KEY_LIFETIME,    default=1h"`
	ServerLifetime time.Duration `env:"SERVER_LIFETIME, default=1m"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=mastersession"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Development reports whether the server runs outside production.
func (c *ServerConfig) Development() bool {
	return c.Env == "development"
}

// Validate checks settings that have no safe default.
func (c *ServerConfig) Validate() error {
	if c.JWTSecret == "" && !c.Development() {
		return fmt.Errorf("config: JWT_SECRET is required in %s", c.Env)
	}
	if c.Storage != StorageMemory && c.Storage != StorageMongo {
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	if c.KeyLifetime <= 0 {
		return fmt.Errorf("config: KEY_LIFETIME must be positive")
	}
	if c.ServerLifetime <= 0 {
		return fmt.Errorf("config: SERVER_LIFETIME must be positive")
	}
	return nil
}

// ClientConfig configures the session CLI (cmd/session).
type ClientConfig struct {
	ServerURL string        `env:"SESSION_SERVER_URL, default=http://localhost:8080"`
	TokenFile string        `env:"SESSION_TOKEN_FILE"`
	Lang      string        `env:"SESSION_LANG,       default=en"`
	Timeout   time.Duration `env:"SESSION_TIMEOUT,    default=10s"`
	LogLevel  string        `env:"LOG_LEVEL,          default=warn"`
}

// LoadServer reads the server configuration through lookuper. Pass
// envconfig.OsLookuper() in production and envconfig.MapLookuper in tests.
func LoadServer(ctx context.Context, lookuper envconfig.Lookuper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load server configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient reads the CLI configuration through lookuper.
func LoadClient(ctx context.Context, lookuper envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load client configuration: %w", err)
	}
	return &cfg, nil
}
