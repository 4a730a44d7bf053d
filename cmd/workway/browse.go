package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/workway/workway/internal/browse"
	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/query"
	"github.com/workway/workway/internal/store"
)

var browseFilters model.Filters

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored postings in the terminal",
	Long:  "Interactive terminal browser over the stored postings, newest first, with the same filters the HTTP API accepts.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseFilters.Title, "title", "", "filter by title substring")
	browseCmd.Flags().StringVar(&browseFilters.Company, "company", "", "filter by exact company name")
	browseCmd.Flags().StringVar(&browseFilters.Location, "location", "", "filter by location substring")
	browseCmd.Flags().StringVar(&browseFilters.ExperienceLevel, "experience", "", "filter by experience level")
	browseCmd.Flags().StringVar(&browseFilters.Domain, "domain", "", "filter by domain")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	return browse.Run(query.NewService(sqlStore), browseFilters)
}
