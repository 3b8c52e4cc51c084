package app

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("backend: got %q", cfg.Storage.Backend)
	}
	if cfg.Generation.Timeout != 120*time.Second || cfg.Generation.MaxConcurrency != 8 || cfg.Generation.MaxRetries != 0 {
		t.Fatalf("generation defaults: %+v", cfg.Generation)
	}
	if cfg.Auth.AccessTokenTTL != time.Hour {
		t.Fatalf("token ttl: got %v", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "souling.yaml")
	err := os.WriteFile(path, []byte(`
port: "8080"
storage:
  backend: sqlite
  sqlite_path: /var/lib/souling/data.db
generation:
  provider: mock
  timeout: 45s
  max_concurrency: 2
http:
  cors_origins: ["http://localhost:3000"]
`), 0o600)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GENERATION_MAX_CONCURRENCY", "3")
	t.Setenv("ACCESS_TOKEN_TTL", "900")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLitePath != "/var/lib/souling/data.db" {
		t.Fatalf("file values not applied: port=%q storage=%+v", cfg.Port, cfg.Storage)
	}
	if cfg.Generation.Provider != "mock" || cfg.Generation.Timeout != 45*time.Second {
		t.Fatalf("generation from file: %+v", cfg.Generation)
	}
	if cfg.Generation.MaxConcurrency != 3 {
		t.Fatalf("env should override file, got %d", cfg.Generation.MaxConcurrency)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("token ttl: got %v", cfg.Auth.AccessTokenTTL)
	}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Fatalf("cors origins: %v", cfg.HTTP.CORSOrigins)
	}
	if !cfg.Storage.AutoMigrate {
		t.Fatalf("defaults should survive a partial file")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongodb")
	t.Setenv("GENERATION_MAX_RETRIES", "-1")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{`unsupported value "mongodb"`, "max_retries"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
