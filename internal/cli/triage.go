package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/claimtriage/internal/pipeline"
	"github.com/ppiankov/claimtriage/internal/summary"
	"github.com/ppiankov/claimtriage/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	triageID        string
	triageLanguage  string
	triageFormat    string
	triageOut       string
	triageTimeout   time.Duration
	triageMaxBytes  int64
	triageSummaries bool
)

// triageCmd represents the triage command
var triageCmd = &cobra.Command{
	Use:   "triage <source>",
	Short: "Triage a claim declaration transcript",
	Long: `Triage reads a declaration transcript and routes the claim:
- Extract the claim structure (rules, or a delegate model with fallback to rules)
- Score complexity on five dimensions
- Decide: autonomous handling, automatic review, or escalation with a brief
- Record the outcome on the claim record and persist it

The source is a file, an http(s) URL, or "-" for stdin. It may hold a JSON
transcript object, a JSON array, JSON lines, or plain text.

Example:
  claimtriage triage declaration.txt
  claimtriage triage transcript.json --format yaml --summaries
  echo "..." | claimtriage triage - --id CLM-2024-001
  claimtriage triage transcript.json --provider openai --model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runTriage,
}

func init() {
	rootCmd.AddCommand(triageCmd)

	triageCmd.Flags().StringVar(&triageID, "id", "", "claim id (default: from the transcript, or generated)")
	triageCmd.Flags().StringVar(&triageLanguage, "language", "", "language of plain-text transcripts (default: locale.default)")
	triageCmd.Flags().StringVar(&triageFormat, "format", "json", "output format (json, yaml)")
	triageCmd.Flags().StringVarP(&triageOut, "out", "o", "", "output path (default: stdout)")
	triageCmd.Flags().DurationVar(&triageTimeout, "timeout", 2*time.Minute, "overall triage timeout")
	triageCmd.Flags().Int64Var(&triageMaxBytes, "max-bytes", 2_000_000, "max transcript bytes to read")
	triageCmd.Flags().BoolVar(&triageSummaries, "summaries", false, "include client, advisor and management summaries")

	addDelegateFlags(triageCmd)
	addStoreFlags(triageCmd)
	addEventFlags(triageCmd)
}

// triageOutput is one triaged claim as printed by triage
type triageOutput struct {
	*pipeline.Result
	Summaries *summary.Summaries `json:"summaries,omitempty"`
}

func runTriage(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(commandContext(cmd), triageTimeout)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Triaging: %s\n", source)
		fmt.Fprintf(os.Stderr, "Delegate: %s\n", orDefault(cfg.Delegate.Provider, "rules only"))
		fmt.Fprintf(os.Stderr, "Store: %s\n", orDefault(cfg.Store.Driver, "memory"))
		fmt.Fprintln(os.Stderr)
	}

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	language := triageLanguage
	if language == "" {
		language = cfg.Locale.Default
	}
	loader := pipeline.NewLoader(triageTimeout, triageMaxBytes, language, util.Proxy{HTTP: cfg.Delegate.HTTPProxy, HTTPS: cfg.Delegate.HTTPSProxy, NoProxy: cfg.Delegate.NoProxy})
	subs, err := loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if triageID != "" {
		if len(subs) != 1 {
			return fmt.Errorf("--id needs exactly one transcript, got %d", len(subs))
		}
		subs[0].ClaimID = triageID
	}

	gen := summary.NewGenerator(cfg.Summary.Contact)
	outputs := make([]triageOutput, 0, len(subs))
	for _, s := range subs {
		result, err := a.pipeline.Triage(ctx, s.ClaimID, s.TranscriptRecord)
		if err != nil {
			return fmt.Errorf("triage failed: %w", err)
		}

		out := triageOutput{Result: result}
		if triageSummaries {
			out.Summaries, err = gen.All(result.Record)
			if err != nil {
				return fmt.Errorf("summaries: %w", err)
			}
		}
		outputs = append(outputs, out)

		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %s (score %.1f/100, %s)\n",
				result.Record.ID, result.Decision.Action, result.Complexity.TotalScore, result.Record.State)
		}
	}

	var v any = outputs
	if len(outputs) == 1 {
		v = outputs[0]
	}
	return writeOutput(triageOut, triageFormat, v)
}

// writeOutput encodes v as json or yaml to path, or stdout when path is empty
func writeOutput(path, format string, v any) (err error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}
	return encode(w, format, v)
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml", "yml":
		// Go through JSON so YAML keys match the JSON field names
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s (supported: json, yaml)", format)
	}
}

// commandContext returns the command context, or Background outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
