package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/vaultgraph/pkg/cache"
	"github.com/matzehuels/vaultgraph/pkg/config"
	"github.com/matzehuels/vaultgraph/pkg/source"
	"github.com/matzehuels/vaultgraph/pkg/source/vault"
	"github.com/matzehuels/vaultgraph/pkg/view"
)

// session bundles everything a running view needs: config, scanner, cache,
// and the view itself.
type session struct {
	cfg   config.Config
	cache cache.Cache
	view  *view.View
}

// openSession loads config for the vault, builds the cache-backed scanner,
// and creates the view. The caller owns Close.
func (c *CLI) openSession(ctx context.Context, vaultDir string, noCache bool) (*session, error) {
	cfg, err := config.LoadForVault(vaultDir)
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Backend = config.CacheNone
	}

	scanner, err := vault.NewScanner(cfg.Vault)
	if err != nil {
		return nil, err
	}

	backend, err := newCache(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	store := source.NewStore(backend, vaultKeyer(cfg.Vault))
	src := source.NewCached(scanner, store)

	v, err := view.New(src, view.Options{
		Device:           cfg.Render.Device,
		Layout:           cfg.Layout,
		NodeCapacity:     cfg.Render.NodeCapacity,
		LinkCapacity:     cfg.Render.LinkCapacity,
		CompactionFactor: cfg.Render.CompactionFactor,
		FadeNear:         cfg.Render.FadeNear,
		FadeFar:          cfg.Render.FadeFar,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	c.Logger.Debug("session opened",
		"vault", cfg.Vault, "device", cfg.Render.Device,
		"cache", cfg.Cache.Backend, "session", v.Session())

	return &session{cfg: cfg, cache: backend, view: v}, nil
}

// Close releases the view and the cache backend.
func (s *session) Close() {
	s.view.Close()
	_ = s.cache.Close()
}
