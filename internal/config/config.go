// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package config loads accountd configuration from a YAML file with
// environment and command-line overrides layered on top.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DefaultResetTTL mirrors the service default so operators see the
// effective value in rendered config.
const DefaultResetTTL = time.Hour

// Config is the root configuration for accountd.
type Config struct {
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Metrics  Metrics  `koanf:"metrics"`
	Reset    Reset    `koanf:"reset"`
	Seed     Seed     `koanf:"seed"`
}

// Database holds connection settings.
type Database struct {
	URL string `koanf:"url"`
}

// Log holds logging settings.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Metrics holds the observability endpoint settings.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Reset holds password reset settings.
type Reset struct {
	TTL time.Duration `koanf:"ttl"`
}

// Seed holds the bootstrap administrator identity used by the seed
// command. The password is never configured, it is generated at seed
// time.
type Seed struct {
	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
}

func defaults() Config {
	return Config{
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Addr: ":9090"},
		Reset:   Reset{TTL: DefaultResetTTL},
		Seed:    Seed{AdminUsername: "admin", AdminEmail: "admin@localhost"},
	}
}

// Load reads configuration in ascending precedence: built-in defaults,
// the YAML file at path (skipped when path is empty), the DATABASE_URL
// environment variable, then changed command-line flags. Flag names
// map to config keys by replacing dashes with dots, so --database-url
// overrides database.url.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := defaults()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only flags the user actually set override file values.
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	// DATABASE_URL wins over the file but not over an explicit flag.
	if env := os.Getenv("DATABASE_URL"); env != "" && !flagChanged(flags, "database-url") {
		cfg.Database.URL = env
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "database.url").
			Errorf("database URL is required")
	}
	if c.Reset.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "reset.ttl").
			Errorf("reset TTL must be positive, got %s", c.Reset.TTL)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}
