package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vaultgraph/pkg/graph"
	"github.com/matzehuels/vaultgraph/pkg/reconcile"
	"github.com/matzehuels/vaultgraph/pkg/source/vault"
	"github.com/matzehuels/vaultgraph/pkg/view"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "stats [vault]",
		Short: "Show graph statistics for a vault or a running server",
		Long: `Stats scans the vault and prints note and link counts. With --addr
it instead queries a running serve instance for its live statistics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.logContext(cmd.Context())

			if addr != "" {
				return fetchServerStats(addr)
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			scanner, err := vault.NewScanner(dir)
			if err != nil {
				return err
			}
			snap, err := scanner.Scan(ctx)
			if err != nil {
				return err
			}

			g := graph.New()
			reconcile.Sync(g, snap)

			resolved, unresolved := 0, 0
			g.EachNode(func(n graph.Node) {
				if n.Resolved {
					resolved++
				} else {
					unresolved++
				}
			})

			printKeyValue("Vault", scanner.Root())
			printKeyValue("Notes", fmt.Sprintf("%d", resolved))
			printKeyValue("Unresolved", fmt.Sprintf("%d", unresolved))
			printKeyValue("Links", fmt.Sprintf("%d", g.LinkCount()))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "query a running serve instance instead of scanning")

	return cmd
}

// fetchServerStats queries a serve instance's stats endpoint and prints the
// live view statistics.
func fetchServerStats(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/stats")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: %s", resp.Status)
	}

	var stats view.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	printKeyValue("Session", stats.Session)
	printKeyValue("Notes", fmt.Sprintf("%d", stats.Nodes))
	printKeyValue("Links", fmt.Sprintf("%d", stats.Links))
	printKeyValue("Ticks", fmt.Sprintf("%d", stats.Ticks))
	printKeyValue("Movement", fmt.Sprintf("%.3f", stats.Movement))
	printKeyValue("Capacity", fmt.Sprintf("%d nodes / %d links", stats.NodeCapacity, stats.LinkCapacity))
	printKeyValue("Compactions", fmt.Sprintf("%d", stats.Compactions))
	if stats.Wedged {
		printWarning("view is wedged")
	}
	return nil
}
