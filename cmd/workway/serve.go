package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/query"
	"github.com/workway/workway/internal/server"
	"github.com/workway/workway/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Serve the jobs API and the cron trigger endpoints; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
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
	ingestors := buildIngestors(cfg, sqlStore, httpClient, logger)

	announcer, err := buildAnnouncer(cfg, sqlStore, logger)
	if err != nil {
		logger.Error("failed to configure twitter client", "error", err)
		os.Exit(1)
	}
	if announcer == nil {
		logger.Info("twitter announcements disabled")
	}

	srv := server.New(query.NewService(sqlStore), ingestors, announcer, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("goodbye")
	return nil
}
