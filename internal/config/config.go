// Package config loads process configuration for the qdsl command from a
// qdsl.yaml file, a .env file and QDSL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/Chasungsoo/querydsl/internal/querysql"
	"github.com/Chasungsoo/querydsl/internal/store"
)

// AppFs is the filesystem config files are read from.
var AppFs = afero.NewOsFs()

// EnvPrefix prefixes environment overrides, e.g. QDSL_DRIVER.
const EnvPrefix = "QDSL"

// Config holds the qdsl configuration.
type Config struct {
	Driver    string
	DSN       string
	Dialect   string
	LogLevel  string
	LogFormat string
}

// Load reads configuration. An explicit path must exist; without one,
// qdsl.yaml in the working directory is used when present.
//
// Precedence, highest first: environment, .env, config file, defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	v.SetDefault("driver", "sqlite3")
	v.SetDefault("dsn", store.MemoryDSN)
	v.SetDefault("dialect", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("qdsl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyDotenv(v, ".env"); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Driver:    cast.ToString(v.Get("driver")),
		DSN:       cast.ToString(v.Get("dsn")),
		Dialect:   strings.ToLower(cast.ToString(v.Get("dialect"))),
		LogLevel:  strings.ToLower(cast.ToString(v.Get("log_level"))),
		LogFormat: strings.ToLower(cast.ToString(v.Get("log_format"))),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDotenv copies QDSL_ entries of a .env file into v unless the real
// environment already sets them.
func applyDotenv(v *viper.Viper, name string) error {
	f, err := AppFs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, val := range values {
		key, ok := strings.CutPrefix(k, EnvPrefix+"_")
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(k); set {
			continue
		}
		v.Set(strings.ToLower(key), val)
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.ResolveDialect(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// ResolveDialect returns the configured dialect, or the driver's dialect
// when none is set.
func (c *Config) ResolveDialect() (*querysql.Dialect, error) {
	if c.Dialect == "" {
		return store.DialectForDriver(c.Driver)
	}
	return querysql.DialectFor(c.Dialect)
}

// Logger builds the slog logger the configuration describes.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
