package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewUsesDefaultsWhenFileMissing(t *testing.T) {
	dataDir := t.TempDir()
	clearChimpEnv(t)
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.File.Version != 1 {
		t.Fatalf("expected default version 1, got %d", cfg.File.Version)
	}
	if cfg.APIBaseURL() != defaultAPIBaseURL {
		t.Fatalf("expected default api url, got %q", cfg.APIBaseURL())
	}
	if cfg.PageSize() != defaultPageSize {
		t.Fatalf("expected default page size, got %d", cfg.PageSize())
	}
}

func TestNewParsesYamlAndTrimsSlashes(t *testing.T) {
	dataDir := t.TempDir()
	clearChimpEnv(t)
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: https://api.todochimp.example/
ai:
  base_url: https://calls.example/
  api_key: abc123
dashboard:
  page_size: 10
`)
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.APIBaseURL() != "https://api.todochimp.example" {
		t.Fatalf("api url = %q", cfg.APIBaseURL())
	}
	if cfg.AIBaseURL() != "https://calls.example" {
		t.Fatalf("ai url = %q", cfg.AIBaseURL())
	}
	if cfg.AIAPIKey() != "abc123" {
		t.Fatalf("ai key = %q", cfg.AIAPIKey())
	}
	if cfg.PageSize() != 10 {
		t.Fatalf("page size = %d", cfg.PageSize())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dataDir := t.TempDir()
	clearChimpEnv(t)
	t.Setenv("CHIMP_API_URL", "https://staging.todochimp.example")
	t.Setenv("CHIMP_AI_KEY", "env-key")
	t.Setenv("CHIMP_PAGE_SIZE", "50")
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.APIBaseURL() != "https://staging.todochimp.example" {
		t.Fatalf("api url = %q", cfg.APIBaseURL())
	}
	if cfg.AIAPIKey() != "env-key" {
		t.Fatalf("ai key = %q", cfg.AIAPIKey())
	}
	if cfg.PageSize() != 50 {
		t.Fatalf("page size = %d", cfg.PageSize())
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	dataDir := t.TempDir()
	clearChimpEnv(t)
	t.Setenv("CHIMP_API_URL", "not a url")
	if _, err := New(dataDir); err == nil {
		t.Fatalf("expected validation error for malformed api url")
	}
}

func TestInitDataDirCreatesLayoutAndConfig(t *testing.T) {
	dataDir := t.TempDir()
	if err := InitDataDir(dataDir); err != nil {
		t.Fatalf("InitDataDir: %v", err)
	}
	for _, sub := range []string{"logs", "state", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dataDir, sub)); err != nil {
			t.Fatalf("expected %s to exist: %v", sub, err)
		}
	}
	// A second init must not clobber an existing config file.
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDataDir(dataDir); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "version: 1\n" {
		t.Fatalf("config file was overwritten on re-init")
	}
}

func TestSetPageSizePersists(t *testing.T) {
	dataDir := t.TempDir()
	clearChimpEnv(t)
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cfg.SetPageSize(25); err != nil {
		t.Fatalf("SetPageSize: %v", err)
	}
	reloaded, err := New(dataDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PageSize() != 25 {
		t.Fatalf("page size after reload = %d", reloaded.PageSize())
	}
}

func clearChimpEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CHIMP_API_URL", "CHIMP_AI_URL", "CHIMP_AI_KEY", "CHIMP_PAGE_SIZE"} {
		t.Setenv(key, "")
	}
}
