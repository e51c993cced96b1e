package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Store.Driver != "sqlite" || cfg.Store.Key != "TASKS" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateLimit.RPS != 0 {
		t.Fatalf("rate limiting should be off by default")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"LISTEN_ADDR":      ":9090",
		"STORE_DRIVER":     "redis",
		"REDIS_ADDR":       "cache:6379",
		"STORAGE_KEY":      "BOARD",
		"ID_STRATEGY":      "random",
		"RATE_LIMIT_RPS":   "2.5",
		"RATE_LIMIT_BURST": "4",
		"CORS_ORIGINS":     "https://a.example, https://b.example",
		"AUTH_MODE":        "apikey",
		"API_KEY":          "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.Store.Driver != "redis" || cfg.Store.RedisAddr != "cache:6379" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Store.Key != "BOARD" || cfg.IDStrategy != "random" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 4 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.toml")
	content := `
listen_addr = ":7070"
log_level = "debug"

[store]
driver = "file"
path = "/var/lib/taskboard"

[tracing]
exporter = "stdout"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(envMap(map[string]string{
		"TASKBOARD_CONFIG": path,
		"LOG_LEVEL":        "warn",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7070" || cfg.Store.Driver != "file" || cfg.Store.Path != "/var/lib/taskboard" {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env should override file, got %q", cfg.LogLevel)
	}
	if cfg.Store.Key != "TASKS" {
		t.Fatalf("defaults should survive a partial file, got key %q", cfg.Store.Key)
	}
	if cfg.Tracing.Exporter != "stdout" {
		t.Fatalf("tracing = %q", cfg.Tracing.Exporter)
	}
}

func TestLoadFrom_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	_ = os.WriteFile(path, []byte("listen_addr = "), 0o644)

	_, err := LoadFrom(envMap(map[string]string{"TASKBOARD_CONFIG": path}))
	if err == nil || !strings.Contains(err.Error(), "loading config file") {
		t.Fatalf("expected config file error, got %v", err)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := []map[string]string{
		{"STORE_DRIVER": "postgres"},
		{"ID_STRATEGY": "clock"},
		{"LOG_LEVEL": "loud"},
		{"TRACING": "jaeger"},
		{"AUTH_MODE": "apikey"},
		{"AUTH_MODE": "bearer"},
		{"AUTH_MODE": "basic"},
		{"RATE_LIMIT_RPS": "fast"},
		{"RATE_LIMIT_RPS": "-1"},
		{"RATE_LIMIT_BURST": "x"},
	}
	for _, env := range cases {
		if _, err := LoadFrom(envMap(env)); err == nil {
			t.Errorf("expected error for %v", env)
		}
	}
}
