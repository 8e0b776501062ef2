package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Config struct {
	GinMode         string        `envconfig:"GIN_MODE" default:"debug" validate:"oneof=debug release test"`
	Port            string        `envconfig:"PORT" default:"3000" validate:"required,numeric"`
	APIPrefix       string        `envconfig:"API_PREFIX" default:"dratavlibrary"`
	TZ              string        `envconfig:"TZ" default:"UTC"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s" validate:"gt=0"`
	DB              Database
	RateLimit       RateLimit
}

type Database struct {
	Dialect        string        `envconfig:"DB_DIALECT" default:"postgres" validate:"oneof=postgres sqlite"`
	Host           string        `envconfig:"DB_HOST" default:"127.0.0.1"`
	Port           string        `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" default:"postgres"`
	Pass           string        `envconfig:"DB_PASS"`
	Name           string        `envconfig:"DB_NAME" default:"dratavlibrary" validate:"required"`
	SSLMode        string        `envconfig:"DB_SSLMODE"`
	ConnectRetries int           `envconfig:"DB_CONNECT_RETRIES" default:"12" validate:"min=1"`
	ConnectDelay   time.Duration `envconfig:"DB_CONNECT_DELAY" default:"2s" validate:"min=0"`
}

type RateLimit struct {
	// RPS is the per-client request rate; zero turns limiting off.
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0" validate:"min=0"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"20" validate:"min=1"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, fills in variables that are not already set.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env")
	}

	if cfg.DB.SSLMode == "" {
		if cfg.GinMode == "release" {
			cfg.DB.SSLMode = "require"
		} else {
			cfg.DB.SSLMode = "disable"
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) DSN() string {
	if c.DB.Dialect == DialectSQLite {
		return c.DB.Name
	}

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DB.Host,
		c.DB.User,
		c.DB.Pass,
		c.DB.Name,
		c.DB.Port,
		c.DB.SSLMode,
		c.TZ,
	)
}
