package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SeedDemoUsers creates the demo accounts on startup when they are missing.
	SeedDemoUsers bool `env:"SEED_DEMO_USERS, default=false"`
	// NotifyWorkers is the number of notification dispatcher workers.
	NotifyWorkers int `env:"NOTIFY_WORKERS, default=4"`
	// CORSOrigins lists the origins allowed to send credentialed requests.
	CORSOrigins []string `env:"CORS_ORIGINS"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Session SessionConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=hospital"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME,   default=hms_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=false"`
	IdleTTL      time.Duration `env:"SESSION_IDLE_TTL,      default=12h"`
	CSRFHeader   string        `env:"CSRF_HEADER,           default=X-CSRF-Token"`
	CSRFMaxAge   time.Duration `env:"CSRF_MAX_AGE,          default=2h"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Session.CSRFMaxAge <= 0 {
		return nil, fmt.Errorf("config: CSRF_MAX_AGE must be positive")
	}
	return &cfg, nil
}
