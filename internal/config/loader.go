package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix namespaces every environment variable read by Load.
const Prefix = "ACADEMIGOLD_"

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"academigold.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3Prefix    string `env:"S3_PREFIX" envDefault:"academigold"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// SweepInterval is how often elapsed reservations are completed. Zero disables the sweep.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses configuration values from the current process environment.
//
// Defaults come from the struct tags. Missing required values and malformed
// values are collected and reported in a single localized error.
func Load() (Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom parses configuration from the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environment})
}

func load(opts env.Options) (Config, error) {
	var cfg Config

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		keys, ok := invalidKeys(err)
		if !ok {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
		invalid = append(invalid, keys...)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = appendKey(invalid, "HTTP_PORT")
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			missing = append(missing, Prefix+"SQLITE_PATH")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			missing = append(missing, Prefix+"POSTGRES_DSN")
		}
	case DriverS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			missing = append(missing, Prefix+"S3_BUCKET")
		}
	default:
		invalid = appendKey(invalid, "STORE_DRIVER")
	}

	if cfg.SessionSecret == "" {
		missing = append(missing, Prefix+"SESSION_SECRET")
	}
	if cfg.SessionTTL <= 0 {
		invalid = appendKey(invalid, "SESSION_TTL")
	}
	if cfg.SweepInterval < 0 {
		invalid = appendKey(invalid, "SWEEP_INTERVAL")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		invalid = appendKey(invalid, "LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias não definidas: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func appendKey(keys []string, key string) []string {
	full := Prefix + key
	for _, existing := range keys {
		if existing == full {
			return keys
		}
	}
	return append(keys, full)
}

// invalidKeys resolves the environment variables behind env parse errors.
func invalidKeys(err error) ([]string, bool) {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil, false
	}

	configType := reflect.TypeOf(Config{})
	var keys []string
	for _, e := range agg.Errors {
		var pErr env.ParseError
		if !errors.As(e, &pErr) {
			return nil, false
		}
		field, ok := configType.FieldByName(pErr.Name)
		if !ok {
			return nil, false
		}
		keys = appendKey(keys, field.Tag.Get("env"))
	}
	return keys, true
}
