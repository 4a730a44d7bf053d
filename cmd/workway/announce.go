package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/store"
)

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Tweet the latest jobs once and exit",
	Long:  "Post the newest stored postings as a tweet thread using the configured Twitter credentials.",
	RunE:  runAnnounce,
}

func init() {
	rootCmd.AddCommand(announceCmd)
}

func runAnnounce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	announcer, err := buildAnnouncer(cfg, sqlStore, logger)
	if err != nil {
		logger.Error("failed to configure twitter client", "error", err)
		os.Exit(1)
	}
	if announcer == nil {
		logger.Error("twitter credentials are not configured")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := announcer.Run(ctx)
	if !res.Success {
		logger.Error("announcement failed", "message", res.Message, "error", res.Error)
		os.Exit(1)
	}

	logger.Info("announcement posted", "message", res.Message, "jobs", res.TweetedJobsCount)
	return nil
}
