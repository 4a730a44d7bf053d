package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/adapter"
	"github.com/workway/workway/internal/announce"
	"github.com/workway/workway/internal/config"
	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/ratelimit"
	"github.com/workway/workway/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "workway",
	Short: "WorkWay — curated tech job aggregator",
	Long:  "WorkWay pulls postings from company job boards, classifies and deduplicates them, and serves them over a paginated HTTP API.",
	// Default to `serve` so that `workway` with no args runs the API server.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: WORKWAY_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > WORKWAY_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("WORKWAY_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildIngestors assembles one ingestor per configured board. Every company
// fetcher is wrapped with shared board-level rate limiting and retries.
func buildIngestors(cfg *config.Config, st model.PostingStore, httpClient *http.Client, logger *slog.Logger) map[string]*ingest.BoardIngestor {
	limiter := ratelimit.NewBoardRateLimiter(cfg.RateLimit.MinDelay)

	decorate := func(f model.PostingFetcher, board model.Source) model.PostingFetcher {
		f = ratelimit.NewRateLimitedFetcher(f, limiter, board)
		return retry.NewRetryFetcher(f, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	}

	ingestors := make(map[string]*ingest.BoardIngestor)

	if companies := cfg.Boards.Greenhouse.Companies; len(companies) > 0 {
		var sources []ingest.CompanySource
		for _, name := range companies {
			f := adapter.NewGreenhouseAdapter(name, httpClient, logger)
			sources = append(sources, ingest.CompanySource{
				Name:    name,
				Fetcher: decorate(f, model.SourceGreenhouse),
			})
			logger.Info("registered company", "name", name, "board", model.SourceGreenhouse)
		}
		ingestors["greenhouse"] = ingest.NewBoardIngestor(model.SourceGreenhouse, sources, st, logger)
	}

	if companies := cfg.Boards.Lever.Companies; len(companies) > 0 {
		var sources []ingest.CompanySource
		for _, name := range companies {
			f := adapter.NewLeverAdapter(name, httpClient, logger)
			sources = append(sources, ingest.CompanySource{
				Name:    name,
				Fetcher: decorate(f, model.SourceLever),
			})
			logger.Info("registered company", "name", name, "board", model.SourceLever)
		}
		ingestors["lever"] = ingest.NewBoardIngestor(model.SourceLever, sources, st, logger)
	}

	return ingestors
}

// buildAnnouncer wires the Twitter announcement job when credentials are
// configured. Returns nil when the twitter section is absent.
func buildAnnouncer(cfg *config.Config, st model.PostingStore, logger *slog.Logger) (*announce.Job, error) {
	tw := cfg.Twitter
	if tw.APIKey == "" && tw.APIKeySecret == "" && tw.AccessToken == "" && tw.AccessSecret == "" {
		return nil, nil
	}

	client, err := announce.NewTwitterClient(announce.Credentials{
		APIKey:       tw.APIKey,
		APIKeySecret: tw.APIKeySecret,
		AccessToken:  tw.AccessToken,
		AccessSecret: tw.AccessSecret,
	}, logger)
	if err != nil {
		return nil, err
	}

	return announce.NewJob(st, client, cfg.TweetCount, logger), nil
}
