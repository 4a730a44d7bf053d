package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/scheduler"
	"github.com/workway/workway/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync daemon",
	Long:  "Run ingestion for all configured boards on the sync interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.SyncInterval.String(),
		"expiry_horizon", cfg.ExpiryHorizon.String(),
		"greenhouse_companies", len(cfg.Boards.Greenhouse.Companies),
		"lever_companies", len(cfg.Boards.Lever.Companies),
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	byBoard := buildIngestors(cfg, sqlStore, httpClient, logger)

	// Stable order: greenhouse first, then lever.
	var ingestors []*ingest.BoardIngestor
	for _, name := range []string{"greenhouse", "lever"} {
		if ing, ok := byBoard[name]; ok {
			ingestors = append(ingestors, ing)
		}
	}
	if len(ingestors) == 0 {
		logger.Error("no boards configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ingestors, sqlStore, cfg.SyncInterval, cfg.ExpiryHorizon, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
