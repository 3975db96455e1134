package connector

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables Load reads. Nested keys use
// a double underscore: XQL_POOL__MAX_OPEN sets pool.max_open.
const EnvPrefix = "XQL_"

// Config represents database connection configuration.
type Config struct {
	Driver         string            `koanf:"driver"`
	Host           string            `koanf:"host"`
	Port           int               `koanf:"port"`
	Database       string            `koanf:"database"`
	Username       string            `koanf:"username"`
	Password       string            `koanf:"password"`
	SSLMode        string            `koanf:"ssl_mode"`
	Params         map[string]string `koanf:"params"`
	Pool           PoolConfig        `koanf:"pool"`
	ConnectTimeout time.Duration     `koanf:"connect_timeout"`
	Retry          *RetryConfig      `koanf:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `koanf:"max_open"`
	MaxIdle     int           `koanf:"max_idle"`
	MaxLifetime time.Duration `koanf:"max_lifetime"`
	MaxIdleTime time.Duration `koanf:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
}

var defaults = map[string]any{
	"driver":             "pgx",
	"host":               "localhost",
	"ssl_mode":           "prefer",
	"connect_timeout":    "10s",
	"pool.max_open":      10,
	"pool.max_idle":      2,
	"pool.max_lifetime":  "1h",
	"pool.max_idle_time": "30m",
}

// Load builds a Config from, in rising priority: defaults, the YAML file at
// path (skipped when empty), XQL_ environment variables and the flags that
// were explicitly set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings the selected driver needs.
func (c Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if c.Driver == "sqlite" {
		if c.Database == "" {
			return fmt.Errorf("sqlite needs a database path")
		}
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}
