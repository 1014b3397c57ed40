// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so they can be reused across the application runtime.
//
// Keys use the HBNB_ prefix and dot notation for nesting:
//
//	HBNB_SERVER.PORT -> server.port -> Config.Server.Port
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process environment before
	// any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "HBNB_"

// Storage engines.
const (
	EngineMemory = "memory"
	EngineFile   = "file"
	EngineDB     = "db"
	EngineRedis  = "redis"
)

// Config is the root configuration object for the application.
//
// Database and Redis are pointers because they are only needed by some
// storage engines and integrations. Observability is injected with defaults
// when omitted.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Database      *DatabaseConfig      `koanf:"database"`
	Redis         *RedisConfig         `koanf:"redis"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds. RateLimit is requests per second per client IP;
// zero disables limiting.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	RateLimit          float64  `koanf:"rate_limit" validate:"min=0"`
	BodyLimit          string   `koanf:"body_limit"`
}

// StorageConfig selects the storage engine behind the API.
type StorageConfig struct {
	Engine      string `koanf:"engine" validate:"required,oneof=memory file db redis"`
	FilePath    string `koanf:"file_path"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// ConnMaxLifetime and ConnMaxIdleTime are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// IntegrationConfig holds third-party service credentials.
// Welcome emails are only sent when ResendAPIKey is set.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

// LoadConfig loads configuration from HBNB_ environment variables, validates it
// and fills in defaults.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Engine == EngineFile && c.Storage.FilePath == "" {
		c.Storage.FilePath = "file.json"
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = "hbnb"
	}
	if c.Server.BodyLimit == "" {
		c.Server.BodyLimit = "1M"
	}
	if c.Integration.EmailFrom == "" {
		c.Integration.EmailFrom = "HBnB <onboarding@resend.dev>"
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	c.Observability.ServiceName = "hbnb-api"
	c.Observability.Environment = c.Primary.Env
}

// Validate checks struct tags and the rules that span several sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Storage.Engine {
	case EngineDB:
		if c.Database == nil {
			return fmt.Errorf("storage engine %q requires the database section", c.Storage.Engine)
		}
	case EngineRedis:
		if c.Redis == nil {
			return fmt.Errorf("storage engine %q requires the redis section", c.Storage.Engine)
		}
	}

	if c.Integration.ResendAPIKey != "" && c.Redis == nil {
		return fmt.Errorf("integration.resend_api_key requires the redis section for background jobs")
	}

	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("invalid observability config: %w", err)
		}
	}

	return nil
}

// JobsEnabled reports whether background jobs should run.
func (c *Config) JobsEnabled() bool {
	return c.Integration.ResendAPIKey != "" && c.Redis != nil
}
