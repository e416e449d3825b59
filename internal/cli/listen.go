package cli

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ppiankov/claimtriage/internal/locale"
	"github.com/ppiankov/claimtriage/internal/pipeline"
	"github.com/ppiankov/claimtriage/internal/worker"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Triage transcripts received over NATS",
	Long: `Listen subscribes to <prefix>.transcript and triages every message.

A message holds one transcript (JSON object or plain text), a JSON array or
JSON lines. Decisions are published to <prefix>.decided and escalations to
<prefix>.escalated. When locale.dir is set, lexicon files are reloaded as they
change.

Example:
  claimtriage listen --nats-url nats://localhost:4222
  claimtriage listen --nats-url nats://localhost:4222 --store postgres --store-dsn postgres://...`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Int("workers", runtime.NumCPU(), "number of concurrent workers (default from config when unset)")

	addDelegateFlags(listenCmd)
	addStoreFlags(listenCmd)
	addEventFlags(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Events.NatsURL == "" {
		return fmt.Errorf("listen needs a NATS server: set --nats-url or events.nats_url")
	}

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if cfg.Locale.Dir != "" {
		if err := locale.NewWatcher(cfg.Locale.Dir, a.registry, logger).Start(ctx); err != nil {
			logger.Warn("lexicon hot reload disabled", "dir", cfg.Locale.Dir, "error", err)
		}
	}

	pool := worker.NewPool[*worker.TriageResult](ctx, cfg.Concurrency.Workers)
	pool.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for tr := range pool.Results() {
			if tr.Error != nil {
				logger.Error("triage failed", "claim_id", tr.ClaimID, "error", tr.Error)
				continue
			}
			logger.Info("claim triaged",
				"claim_id", tr.ClaimID,
				"action", tr.Result.Decision.Action,
				"state", tr.Result.Record.State,
				"duration", tr.Duration)
		}
	}()

	subject := a.subjects.Transcript()
	err = a.nats.Subscribe(subject, func(subject string, data []byte) {
		subs, err := pipeline.ParseSubmissions(data, cfg.Locale.Default)
		if err != nil {
			logger.Warn("malformed transcript message", "subject", subject, "error", err)
			return
		}
		for _, s := range subs {
			job := &worker.TriageJob{Submission: s, Triager: a.pipeline}
			if !pool.Submit(job.Run) {
				logger.Warn("dropping transcript, shutting down", "claim_id", s.ClaimID)
				return
			}
		}
	})
	if err != nil {
		pool.Shutdown()
		<-done
		return err
	}

	logger.Info("listening", "subject", subject, "workers", cfg.Concurrency.Workers)
	<-ctx.Done()

	submitted, completed := pool.Stats()
	logger.Info("shutting down", "submitted", submitted, "completed", completed)
	pool.Shutdown()
	<-done
	return nil
}
