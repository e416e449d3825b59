package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/ppiankov/claimtriage/internal/model"
	"github.com/ppiankov/claimtriage/internal/pipeline"
	"github.com/ppiankov/claimtriage/internal/util"
	"github.com/ppiankov/claimtriage/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchOut      string
	batchLanguage string
	batchTimeout  time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Triage many transcripts in parallel",
	Long: `Batch triages every transcript of a file concurrently:
- Read transcripts from a JSON lines file (one transcript per line) or a JSON array
- Triage them in parallel with a configurable worker count
- Delegate calls share one rate limit per provider
- Write one result line per transcript, in input order

Example:
  claimtriage batch transcripts.jsonl
  claimtriage batch transcripts.jsonl --workers 8 --out results.jsonl
  claimtriage batch transcripts.jsonl --store sqlite --store-path ./claims`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", runtime.NumCPU(), "number of concurrent workers (default from config when unset)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "results file, one JSON line per transcript (default: none)")
	batchCmd.Flags().StringVar(&batchLanguage, "language", "", "language of plain-text transcripts (default: locale.default)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	addDelegateFlags(batchCmd)
	addStoreFlags(batchCmd)
	addEventFlags(batchCmd)
}

// batchLine is one entry of the results file
type batchLine struct {
	Index      int              `json:"index"`
	ClaimID    string           `json:"claim_id,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Result     *pipeline.Result `json:"result,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(commandContext(cmd), batchTimeout)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimtriage Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Delegate:     %s\n", orDefault(cfg.Delegate.Provider, "rules only"))
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", orDefault(cfg.Store.Driver, "memory"))
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	language := batchLanguage
	if language == "" {
		language = cfg.Locale.Default
	}
	loader := pipeline.NewLoader(batchTimeout, 0, language, util.Proxy{HTTP: cfg.Delegate.HTTPProxy, HTTPS: cfg.Delegate.HTTPSProxy, NoProxy: cfg.Delegate.NoProxy})

	fmt.Fprintf(os.Stderr, "⚙️  Reading transcripts from file...\n")
	subs, err := loader.Load(ctx, file)
	if err != nil {
		return fmt.Errorf("load transcripts: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d transcripts\n", len(subs))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Triaging with %d workers...\n", workers)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.pipeline, workers)
	results := processor.Process(ctx, subs)

	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ #%d %s: %v\n", r.Index+1, r.ClaimID, r.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ #%d %s: %s (score %.1f/100)\n",
			r.Index+1, r.ClaimID, r.Result.Decision.Action, r.Result.Complexity.TotalScore)
	}

	if batchOut != "" {
		if err := writeBatchResults(batchOut, results); err != nil {
			return err
		}
	}

	summary := worker.Summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d transcripts\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "  Escalated:  %d\n", summary.Escalated)
	actions := make([]string, 0, len(summary.ByAction))
	for action := range summary.ByAction {
		actions = append(actions, string(action))
	}
	sort.Strings(actions)
	for _, action := range actions {
		fmt.Fprintf(os.Stderr, "    %-26s %d\n", action, summary.ByAction[model.Action(action)])
	}
	if batchOut != "" {
		fmt.Fprintf(os.Stderr, "  Output:     %s\n", batchOut)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if summary.Failed > 0 && summary.Failed == summary.Total {
		return fmt.Errorf("all %d transcripts failed", summary.Total)
	}
	return nil
}

// writeBatchResults writes one JSON line per result
func writeBatchResults(path string, results []*worker.TriageResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close results file: %w", closeErr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, r := range results {
		line := batchLine{
			Index:      r.Index,
			ClaimID:    r.ClaimID,
			DurationMS: r.Duration.Milliseconds(),
			Result:     r.Result,
		}
		if r.Error != nil {
			line.Error = r.Error.Error()
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write results file: %w", err)
		}
	}
	return nil
}
