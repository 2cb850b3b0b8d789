package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	MigrateOnStart  bool          `envconfig:"MIGRATE_ON_START" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	ServiceKeyConfig
}

// ServiceKeyConfig holds the service API key settings. pricingctl reads it
// on its own, without the database settings the server requires.
type ServiceKeyConfig struct {
	ServiceKeyHash string `envconfig:"SERVICE_KEY_HASH" default:""`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServiceKey reads only the service key settings.
func LoadServiceKey() (*ServiceKeyConfig, error) {
	var cfg ServiceKeyConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis address was configured for ceiling locks.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
