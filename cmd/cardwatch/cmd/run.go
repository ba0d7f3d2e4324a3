package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardwatch/cardwatch/internal/catalog"
	"github.com/cardwatch/cardwatch/internal/config"
	"github.com/cardwatch/cardwatch/internal/engine"
	"github.com/cardwatch/cardwatch/internal/notify"
	"github.com/cardwatch/cardwatch/internal/snapshot"
	"github.com/cardwatch/cardwatch/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single monitor cycle and exit",
	Long: "Fetches the catalog once, alerts on changes against the persisted " +
		"snapshot, persists the new snapshot, and exits. Suitable for cron or " +
		"one-shot platform schedulers.",
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	eng := buildEngine(cfg, log)

	report, err := eng.RunCycle(cmd.Context())
	if err != nil {
		if errors.Is(err, engine.ErrNoProducts) {
			// Likely a connection issue; the snapshot was not touched.
			log.Warn("no products fetched, nothing to do")
			return nil
		}
		return err
	}

	log.Info("cycle complete",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"events", report.Events,
		"messages_sent", report.MessagesSent,
		"messages_failed", report.MessagesFailed,
		"first_run", report.FirstRun,
	)
	return nil
}

// buildEngine wires the configured collaborators into an Engine. The
// engine only ever sees the injected values, never the config itself.
func buildEngine(cfg *config.Config, log *slog.Logger) *engine.Engine {
	var fetcher catalog.Fetcher
	switch cfg.Catalog.Adapter {
	case config.AdapterListing:
		fetcher = catalog.NewListingPageFetcher(
			cfg.Catalog.URL,
			catalog.WithListingUserAgent(cfg.Catalog.UserAgent),
			catalog.WithListingLogger(log),
		)
	default:
		fetcher = catalog.NewShopfrontFetcher(
			cfg.Catalog.URL,
			catalog.WithUserAgent(cfg.Catalog.UserAgent),
			catalog.WithMaxPages(cfg.Catalog.MaxPages),
			catalog.WithRateLimit(cfg.Catalog.RateLimit.PerSecond, cfg.Catalog.RateLimit.Burst),
			catalog.WithShopfrontLogger(log),
		)
	}

	var notifier notify.Notifier
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	} else {
		notifier = notify.NewNoopNotifier(log)
	}

	store := snapshot.NewFileStore(cfg.Snapshot.Path, snapshot.WithLogger(log))

	return engine.NewEngine(fetcher, store, notifier,
		engine.WithLogger(log),
		engine.WithEmbedCap(cfg.Alerts.EmbedCap),
	)
}
