// Package config resolves runtime settings: defaults, then an optional TOML
// file named by TASKBOARD_CONFIG, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type StoreConfig struct {
	Driver      string `toml:"driver"` // memory, file, sqlite or redis
	Path        string `toml:"path"`   // sqlite database file or file-store directory
	Key         string `toml:"key"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
}

type AuthConfig struct {
	Mode        string `toml:"mode"`
	APIKey      string `toml:"api_key"`
	BearerToken string `toml:"bearer_token"`
}

type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
}

type TracingConfig struct {
	Exporter     string `toml:"exporter"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Config struct {
	ListenAddr  string          `toml:"listen_addr"`
	LogLevel    string          `toml:"log_level"`
	IDStrategy  string          `toml:"id_strategy"`
	CORSOrigins []string        `toml:"cors_origins"`
	Store       StoreConfig     `toml:"store"`
	Auth        AuthConfig      `toml:"auth"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
	Tracing     TracingConfig   `toml:"tracing"`
}

func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		LogLevel:    "info",
		IDStrategy:  "sequence",
		CORSOrigins: []string{"*"},
		Store: StoreConfig{
			Driver:      "sqlite",
			Path:        "data/taskboard.db",
			Key:         "TASKS",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "taskboard:",
		},
		Auth:      AuthConfig{Mode: "none"},
		RateLimit: RateLimitConfig{RPS: 0, Burst: 20},
		Tracing:   TracingConfig{Exporter: "none"},
	}
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom resolves configuration using getenv for every lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(getenv("TASKBOARD_CONFIG")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString(getenv, "LISTEN_ADDR", &cfg.ListenAddr)
	setString(getenv, "LOG_LEVEL", &cfg.LogLevel)
	setString(getenv, "ID_STRATEGY", &cfg.IDStrategy)
	setString(getenv, "STORE_DRIVER", &cfg.Store.Driver)
	setString(getenv, "STORE_PATH", &cfg.Store.Path)
	setString(getenv, "STORAGE_KEY", &cfg.Store.Key)
	setString(getenv, "REDIS_ADDR", &cfg.Store.RedisAddr)
	setString(getenv, "REDIS_PREFIX", &cfg.Store.RedisPrefix)
	setString(getenv, "AUTH_MODE", &cfg.Auth.Mode)
	setString(getenv, "API_KEY", &cfg.Auth.APIKey)
	setString(getenv, "BEARER_TOKEN", &cfg.Auth.BearerToken)
	setString(getenv, "TRACING", &cfg.Tracing.Exporter)
	setString(getenv, "OTLP_ENDPOINT", &cfg.Tracing.OTLPEndpoint)

	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	if v := strings.TrimSpace(getenv("RATE_LIMIT_RPS")); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v := strings.TrimSpace(getenv("RATE_LIMIT_BURST")); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects values the rest of the program would have to guess about.
func (c Config) Validate() error {
	if !oneOf(c.Store.Driver, "memory", "file", "sqlite", "redis") {
		return fmt.Errorf("store driver %q: want memory, file, sqlite or redis", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.Driver != "redis" && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store driver %q needs a path", c.Store.Driver)
	}
	if !oneOf(c.IDStrategy, "sequence", "random") {
		return fmt.Errorf("id strategy %q: want sequence or random", c.IDStrategy)
	}
	if !oneOf(c.LogLevel, "debug", "info", "warn", "warning", "error") {
		return fmt.Errorf("log level %q: want debug, info, warn or error", c.LogLevel)
	}
	if !oneOf(c.Tracing.Exporter, "none", "stdout", "otlp") {
		return fmt.Errorf("tracing exporter %q: want none, stdout or otlp", c.Tracing.Exporter)
	}
	switch strings.ToLower(c.Auth.Mode) {
	case "none":
	case "apikey":
		if c.Auth.APIKey == "" {
			return fmt.Errorf("auth mode apikey needs API_KEY")
		}
	case "bearer":
		if c.Auth.BearerToken == "" {
			return fmt.Errorf("auth mode bearer needs BEARER_TOKEN")
		}
	default:
		return fmt.Errorf("auth mode %q: want none, apikey or bearer", c.Auth.Mode)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate limit rps must not be negative")
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
