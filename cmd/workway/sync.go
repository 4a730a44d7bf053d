package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/store"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync [greenhouse|lever]",
	Short: "Run one ingestion pass and exit",
	Long:  "Fetch, classify, deduplicate and upsert postings once. With a board argument only that board is synced.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and report without writing to the database")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// In dry-run mode, use a NopStore so nothing is persisted.
	var st model.PostingStore
	if syncDryRun {
		logger.Info("dry-run mode enabled, no postings will be saved")
		st = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.Database.Path, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		st = sqlStore
	}

	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	ingestors := buildIngestors(cfg, st, httpClient, logger)

	if len(args) == 1 {
		board := args[0]
		if _, ok := ingestors[board]; !ok {
			return fmt.Errorf("unknown or unconfigured board %q", board)
		}
		for name := range ingestors {
			if name != board {
				delete(ingestors, name)
			}
		}
	}

	if len(ingestors) == 0 {
		logger.Error("no boards configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for name, ing := range ingestors {
		rep, err := ing.Run(ctx)
		if err != nil {
			logger.Error("sync failed", "board", name, "error", err)
			continue
		}
		logger.Info("sync complete",
			"board", rep.Board,
			"companies", rep.Companies,
			"fetched", rep.Fetched,
			"deduped", rep.Deduped,
			"saved", rep.Saved,
			"skipped", rep.Skipped,
			"failed", rep.Failed,
		)
	}

	return nil
}
