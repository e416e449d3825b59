package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/claimtriage/internal/claim"
	"github.com/ppiankov/claimtriage/internal/store"
	"github.com/ppiankov/claimtriage/internal/summary"
	"github.com/spf13/cobra"
)

var (
	claimsFormat    string
	claimsState     string
	resolveReason   string
	rejectReason    string
	claimsSummaries bool
)

// claimsCmd represents the claims command
var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect and close stored claims",
	Long: `Inspect and close claims kept in the configured store.

The memory store does not outlive the process; use disk, layered, sqlite or
postgres to work with claims triaged by earlier runs.

Example:
  claimtriage claims list --store sqlite --store-path ./claims
  claimtriage claims show CLM-2024-001 --summaries
  claimtriage claims resolve CLM-2024-001 --reason "indemnity paid"
  claimtriage claims stats`,
}

var claimsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a claim record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rec, err := a.pipeline.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !claimsSummaries {
				return encode(cmd.OutOrStdout(), claimsFormat, rec)
			}
			s, err := summary.NewGenerator(a.cfg.Summary.Contact).All(rec)
			if err != nil {
				return fmt.Errorf("summaries: %w", err)
			}
			return encode(cmd.OutOrStdout(), claimsFormat, struct {
				*claim.Record
				Summaries *summary.Summaries `json:"summaries"`
			}{rec, s})
		})
	},
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored claims",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state := claim.State(claimsState)
		if state != "" && !state.Valid() {
			return fmt.Errorf("unknown state: %s", claimsState)
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			records, err := store.ListRecords(ctx, a.store, state)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tACTION\tSCORE\tREVIEWER\tUPDATED")
			for _, r := range records {
				action, total := "-", "-"
				if r.Decision != nil {
					action = string(r.Decision.Action)
				}
				if r.Complexity != nil {
					total = fmt.Sprintf("%.1f", r.Complexity.TotalScore)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.State, action, total, orDefault(r.AssignedReviewer, "-"),
					r.LastUpdated.Format(time.RFC3339))
			}
			return w.Flush()
		})
	},
}

var claimsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Close a claim as settled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rec, err := a.pipeline.Resolve(ctx, args[0], resolveReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ %s resolved\n", rec.ID)
			return nil
		})
	},
}

var claimsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Close a claim as declined",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			rec, err := a.pipeline.Reject(ctx, args[0], rejectReason)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ %s rejected\n", rec.ID)
			return nil
		})
	},
}

var claimsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count stored claims per state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			counts, err := store.CountByState(ctx, a.store)
			if err != nil {
				return err
			}
			total := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, s := range claim.States {
				fmt.Fprintf(w, "%s\t%d\n", s, counts[s])
				total += counts[s]
			}
			fmt.Fprintf(w, "total\t%d\n", total)
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(claimsCmd)
	claimsCmd.AddCommand(claimsShowCmd, claimsListCmd, claimsResolveCmd, claimsRejectCmd, claimsStatsCmd)

	claimsCmd.PersistentFlags().String("store", "", "claim store driver (memory, disk, layered, sqlite, postgres)")
	claimsCmd.PersistentFlags().String("store-path", "", "directory or file of the disk, layered and sqlite stores")
	claimsCmd.PersistentFlags().String("store-dsn", "", "postgres connection string")
	claimsCmd.PersistentFlags().String("nats-url", "", "NATS server URL for closed events (empty disables events)")

	claimsShowCmd.Flags().StringVar(&claimsFormat, "format", "json", "output format (json, yaml)")
	claimsShowCmd.Flags().BoolVar(&claimsSummaries, "summaries", false, "include client, advisor and management summaries")
	claimsListCmd.Flags().StringVar(&claimsState, "state", "", "only list claims in this state")
	claimsResolveCmd.Flags().StringVar(&resolveReason, "reason", "resolved", "reason recorded on the state change")
	claimsRejectCmd.Flags().StringVar(&rejectReason, "reason", "rejected", "reason recorded on the state change")
}

// withApp builds the app for one store command and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), time.Minute)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Stored claims are never re-extracted here
	cfg.Delegate.Provider = ""
	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
