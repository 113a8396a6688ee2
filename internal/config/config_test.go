package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "env: dev\napi:\n  base_url: http://api.test/api\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.API.BaseURL != "http://api.test/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Quiz.TickInterval != time.Second {
		t.Errorf("Quiz.TickInterval = %v, want 1s", cfg.Quiz.TickInterval)
	}
	if cfg.Session.Store != StoreMemory {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Postgres.Enabled() || cfg.Minio.Enabled() || cfg.ES.Enabled() {
		t.Errorf("optional backends should be disabled by default")
	}
}

func TestLoadRejectsUnknownSessionStore(t *testing.T) {
	path := writeConfig(t, "session:\n  store: memcached\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for unknown session store")
	}
}

func TestLoadRejectsPostgresWithoutHost(t *testing.T) {
	path := writeConfig(t, "demo:\n  storage: postgres\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for postgres storage without host")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}

func TestLoadDemoPublicURLFromEnv(t *testing.T) {
	t.Setenv("DEMO_PUBLIC_URL", "https://api.example.com/api")
	path := writeConfig(t, "env: prod\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Demo.PublicURL != "https://api.example.com/api" {
		t.Errorf("Demo.PublicURL = %q", cfg.Demo.PublicURL)
	}
}
