// Package cli implements the vaultgraph command-line interface.
//
// This package provides commands for running the live 3D vault view,
// exporting the link graph to static formats, serving the control API, and
// managing the artifact cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - view: Run the live force-directed view of a vault
//   - export: Render the link graph to DOT, SVG, or PNG
//   - serve: Run the view headless with the HTTP control API
//   - stats: Print link graph statistics
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vaultgraph/pkg/buildinfo"
	"github.com/matzehuels/vaultgraph/pkg/cache"
	"github.com/matzehuels/vaultgraph/pkg/config"
)

// appName is the application name used for directories and display.
const appName = "vaultgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Vaultgraph visualizes a markdown vault as a living 3D link graph",
		Long:         `Vaultgraph scans a directory of markdown notes, follows their [[wikilinks]], and renders the resulting graph as a force-directed 3D scene that tracks the vault as it changes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// logContext attaches the CLI logger to a context for packages that pull it
// with log.FromContext.
func (c *CLI) logContext(ctx context.Context) context.Context {
	return log.WithContext(ctx, c.Logger)
}

// newCache builds the cache backend selected by the config.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	default:
		return cache.NewFileCache(cfg.CacheDir())
	}
}

// vaultKeyer scopes cache keys to one vault so vaults sharing a backend do
// not collide.
func vaultKeyer(vault string) cache.Keyer {
	return cache.NewScopedKeyer(nil, "vault:"+cache.Hash([]byte(vault))[:16]+":")
}
