package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/vaultgraph/pkg/api"
	"github.com/matzehuels/vaultgraph/pkg/observability/prom"
	"github.com/matzehuels/vaultgraph/pkg/source"
)

// serveCommand creates the headless server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		fps     int
		rescan  time.Duration
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [vault]",
		Short: "Run the view headless behind an HTTP API",
		Long: `Serve runs the simulation loop without a terminal UI and exposes
sync triggers, statistics, health, and Prometheus metrics over HTTP.
External tools can POST /sync or /sync/{label} to request rescans.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.logContext(cmd.Context())

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			sess, err := c.openSession(ctx, dir, noCache)
			if err != nil {
				return err
			}
			defer sess.Close()

			prom.New(prometheus.DefaultRegisterer).Install()

			if addr == "" {
				addr = sess.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:    addr,
				Handler: api.NewServer(sess.view).Handler(),
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			sess.view.Mailbox().Post(source.Event{Kind: source.EventBulk})

			c.Logger.Info("serving", "addr", addr, "vault", sess.cfg.Vault)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return runTicks(gctx, sess.view, fps, rescan)
			})
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured server address)")
	cmd.Flags().IntVar(&fps, "fps", 60, "simulation ticks per second")
	cmd.Flags().DurationVar(&rescan, "rescan", 5*time.Second, "vault rescan interval (0 disables)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the snapshot cache")

	return cmd
}
