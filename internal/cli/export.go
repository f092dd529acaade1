package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vaultgraph/pkg/cache"
	"github.com/matzehuels/vaultgraph/pkg/config"
	apperrors "github.com/matzehuels/vaultgraph/pkg/errors"
	"github.com/matzehuels/vaultgraph/pkg/export"
	"github.com/matzehuels/vaultgraph/pkg/graph"
	"github.com/matzehuels/vaultgraph/pkg/reconcile"
	"github.com/matzehuels/vaultgraph/pkg/source/vault"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export [vault]",
		Short: "Export the vault link graph to DOT, SVG, or PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.logContext(cmd.Context())

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			format = strings.ToLower(format)
			if err := apperrors.ValidateExportFormat(format); err != nil {
				return err
			}

			cfg, err := config.LoadForVault(dir)
			if err != nil {
				return err
			}
			if noCache {
				cfg.Cache.Backend = config.CacheNone
			}

			return c.runExport(ctx, cfg, format, output, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to graph.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include handles and resolution state in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the export cache")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, cfg config.Config, format, output string, detailed bool) error {
	scanner, err := vault.NewScanner(cfg.Vault)
	if err != nil {
		return err
	}

	spin := newSpinner(ctx, "Scanning vault...")
	spin.Start()

	snap, err := scanner.Scan(ctx)
	if err != nil {
		spin.StopWithError("Scan failed")
		return err
	}

	g := graph.New()
	reconcile.Sync(g, snap)

	dot := export.ToDOT(g, export.Options{Detailed: detailed})

	backend, err := newCache(ctx, &cfg)
	if err != nil {
		spin.StopWithError("Cache unavailable")
		return err
	}
	defer backend.Close()

	keyer := vaultKeyer(cfg.Vault)
	key := keyer.ExportKey(export.Hash(g), format)

	var (
		data   []byte
		cached bool
	)
	if format != "dot" {
		if hit, ok, cerr := backend.Get(ctx, key); cerr == nil && ok {
			data, cached = hit, true
		}
	}

	if data == nil {
		spin.Stop()
		spin = newSpinner(ctx, fmt.Sprintf("Rendering %s...", strings.ToUpper(format)))
		spin.Start()

		switch format {
		case "dot":
			data = []byte(dot)
		case "svg":
			data, err = export.RenderSVG(ctx, dot)
		case "png":
			data, err = export.RenderPNG(ctx, dot)
		}
		if err != nil {
			spin.StopWithError("Render failed")
			return err
		}
		if format != "dot" {
			if cerr := backend.Set(ctx, key, data, cache.DefaultExportTTL); cerr != nil {
				c.Logger.Debug("export cache write failed", "error", cerr)
			}
		}
	}

	if output == "" {
		output = "graph." + format
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		spin.StopWithError("Write failed")
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		spin.StopWithError("Write failed")
		return err
	}

	spin.StopWithSuccess("Export complete")
	printFile(output)
	printStats(g.NodeCount(), g.LinkCount(), cached)
	return nil
}
