package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFilename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
vault = "/notes"

[layout]
gravity = -3.0

[render]
node_capacity = 256

[cache]
backend = "redis"
redis_addr = "cache.local:6379"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault != "/notes" {
		t.Errorf("vault = %q", cfg.Vault)
	}
	if cfg.Layout.Gravity != -3.0 {
		t.Errorf("gravity = %v", cfg.Layout.Gravity)
	}
	// Unset keys keep defaults.
	if cfg.Layout.Theta != Default().Layout.Theta {
		t.Errorf("theta = %v, want default", cfg.Layout.Theta)
	}
	if cfg.Render.NodeCapacity != 256 {
		t.Errorf("node_capacity = %d", cfg.Render.NodeCapacity)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache.local:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("server addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[render]
node_capactiy = 10
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for misspelled key")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[cache]
backend = "memcached"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown cache backend")
	}

	path = writeConfig(t, t.TempDir(), `
[layout]
time_step = -1.0
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative time step")
	}
}

func TestLoadForVault(t *testing.T) {
	// No config file: defaults with vault set.
	dir := t.TempDir()
	cfg, err := LoadForVault(dir)
	if err != nil {
		t.Fatalf("LoadForVault: %v", err)
	}
	if cfg.Vault != dir {
		t.Errorf("vault = %q, want %q", cfg.Vault, dir)
	}

	// With a config file lacking a vault key, the argument wins.
	dir = t.TempDir()
	writeConfig(t, dir, "[render]\nnode_capacity = 16\n")
	cfg, err = LoadForVault(dir)
	if err != nil {
		t.Fatalf("LoadForVault: %v", err)
	}
	if cfg.Vault != dir {
		t.Errorf("vault = %q, want %q", cfg.Vault, dir)
	}
	if cfg.Render.NodeCapacity != 16 {
		t.Errorf("node_capacity = %d", cfg.Render.NodeCapacity)
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Default()
	cfg.Vault = "/notes"
	if got := cfg.CacheDir(); got != filepath.Join("/notes", ".vaultgraph", "cache") {
		t.Errorf("CacheDir = %q", got)
	}
	cfg.Cache.Dir = "/tmp/cache"
	if got := cfg.CacheDir(); got != "/tmp/cache" {
		t.Errorf("CacheDir = %q", got)
	}
}
