// Package config loads vaultgraph.toml, the single file holding vault
// location, simulation tuning, render options, and cache backend settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vaultgraph/pkg/layout"
	"github.com/matzehuels/vaultgraph/pkg/render"
)

// DefaultFilename is looked up in the vault root when no explicit config
// path is given.
const DefaultFilename = "vaultgraph.toml"

// Render holds view and buffer options.
type Render struct {
	// Device names the render backend. Empty selects the in-memory device.
	Device string `toml:"device"`

	// NodeCapacity and LinkCapacity size the initial GPU buffers.
	NodeCapacity int `toml:"node_capacity"`
	LinkCapacity int `toml:"link_capacity"`

	// CompactionFactor triggers link slot compaction; see the view package.
	CompactionFactor int `toml:"compaction_factor"`

	// FadeNear and FadeFar are the label billboard fade distances.
	FadeNear float32 `toml:"fade_near"`
	FadeFar  float32 `toml:"fade_far"`
}

// CacheBackend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Cache holds artifact cache settings.
type Cache struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty uses <vault>/.vaultgraph/cache.
	Dir string `toml:"dir"`

	// Redis connection settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Server holds control API settings.
type Server struct {
	// Addr is the listen address for serve mode.
	Addr string `toml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	// Vault is the note directory to visualize.
	Vault string `toml:"vault"`

	Layout layout.Config `toml:"layout"`
	Render Render        `toml:"render"`
	Cache  Cache         `toml:"cache"`
	Server Server        `toml:"server"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Render: Render{
			Device:           render.DeviceMemory,
			NodeCapacity:     render.DefaultInstanceCapacity,
			LinkCapacity:     render.DefaultLinkCapacity,
			CompactionFactor: 4,
			FadeNear:         150,
			FadeFar:          600,
		},
		Cache: Cache{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
		},
		Server: Server{
			Addr: "localhost:8420",
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
// Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadForVault loads <vault>/vaultgraph.toml if present, otherwise returns
// defaults with Vault set.
func LoadForVault(vault string) (Config, error) {
	path := filepath.Join(vault, DefaultFilename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.Vault = vault
		return cfg, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if cfg.Vault == "" {
		cfg.Vault = vault
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run
// with.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}
	if c.Render.NodeCapacity < 0 || c.Render.LinkCapacity < 0 {
		return fmt.Errorf("render: buffer capacities must be positive")
	}
	if c.Render.FadeFar <= c.Render.FadeNear {
		return fmt.Errorf("render: fade_far must exceed fade_near")
	}
	return nil
}

// CacheDir returns the file cache directory, defaulting under the vault.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Vault, ".vaultgraph", "cache")
}
