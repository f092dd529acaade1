package cli

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vaultgraph/pkg/source"
	"github.com/matzehuels/vaultgraph/pkg/view"
)

// viewCommand creates the live view command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		fps     int
		rescan  time.Duration
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "view [vault]",
		Short: "Run the live force-directed view of a vault",
		Long: `View scans the vault, builds the link graph, and runs the force
simulation and render loop, showing live statistics in the terminal.
The vault is rescanned periodically so edits appear without restarting.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(c.logContext(cmd.Context()))
			defer cancel()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			sess, err := c.openSession(ctx, dir, noCache)
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.view.Mailbox().Post(source.Event{Kind: source.EventBulk})

			program := tea.NewProgram(newMonitorModel(sess.view, sess.cfg.Vault))

			go func() {
				if err := runTicks(ctx, sess.view, fps, rescan); err != nil && !errors.Is(err, context.Canceled) {
					program.Send(viewErrMsg{err: err})
				}
			}()

			final, err := program.Run()
			cancel()
			if err != nil {
				return err
			}
			if m, ok := final.(monitorModel); ok && m.err != nil {
				return m.err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 60, "simulation ticks per second")
	cmd.Flags().DurationVar(&rescan, "rescan", 2*time.Second, "vault rescan interval (0 disables)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the snapshot cache")

	return cmd
}

// runTicks drives the view's tick loop until the context ends or a tick
// fails terminally. Periodic bulk rescans are posted to the mailbox, never
// applied directly, so the tick loop stays the only graph writer.
func runTicks(ctx context.Context, v *view.View, fps int, rescan time.Duration) error {
	if fps <= 0 {
		fps = 60
	}
	frame := time.NewTicker(time.Second / time.Duration(fps))
	defer frame.Stop()

	var rescanC <-chan time.Time
	if rescan > 0 {
		t := time.NewTicker(rescan)
		defer t.Stop()
		rescanC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rescanC:
			v.Mailbox().Post(source.Event{Kind: source.EventBulk})
		case <-frame.C:
			if err := v.Tick(ctx); err != nil {
				return err
			}
		}
	}
}
