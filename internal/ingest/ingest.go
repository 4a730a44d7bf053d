// Package ingest runs the board sync pipeline: fetch per company, classify
// (done by the adapters), deduplicate, and upsert into the posting store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workway/workway/internal/dedup"
	"github.com/workway/workway/internal/model"
)

// CompanySource pairs a company slug with its board fetcher.
type CompanySource struct {
	Name    string
	Fetcher model.PostingFetcher
}

// Report summarizes one ingestion run. Counts are cumulative across all the
// board's companies.
type Report struct {
	Board     model.Source `json:"board"`
	Companies int          `json:"companies"`
	Fetched   int          `json:"fetched"`
	Deduped   int          `json:"deduped"`
	Saved     int          `json:"saved"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
}

// BoardIngestor owns the full ingestion pipeline for one board:
// fetch → dedup → upsert, one company at a time.
type BoardIngestor struct {
	Board   model.Source
	sources []CompanySource
	store   model.PostingStore
	logger  *slog.Logger
}

// NewBoardIngestor creates an ingestor wired with the board's company
// fetchers and the destination store.
func NewBoardIngestor(board model.Source, sources []CompanySource, store model.PostingStore, logger *slog.Logger) *BoardIngestor {
	return &BoardIngestor{
		Board:   board,
		sources: sources,
		store:   store,
		logger:  logger,
	}
}

// Run processes the board's companies sequentially. A failed fetch for one
// company is logged and degrades to zero postings for that company; the run
// continues. Only a cancelled context or a store-wide failure ends the run
// early.
func (b *BoardIngestor) Run(ctx context.Context) (Report, error) {
	rep := Report{Board: b.Board, Companies: len(b.sources)}

	b.logger.Info("starting ingestion", "board", b.Board, "companies", len(b.sources))

	for _, src := range b.sources {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("ingesting %s: %w", b.Board, err)
		}

		postings, err := src.Fetcher.FetchPostings(ctx)
		if err != nil {
			b.logger.Error("fetch failed, skipping company",
				"board", b.Board,
				"company", src.Name,
				"error", err,
			)
			continue
		}
		rep.Fetched += len(postings)

		unique := dedup.Collapse(postings)
		rep.Deduped += len(postings) - len(unique)
		if len(unique) == 0 {
			continue
		}

		res, err := b.store.UpsertBatch(ctx, unique)
		rep.Saved += res.Saved
		rep.Skipped += res.Skipped
		rep.Failed += len(res.Failed)
		if err != nil {
			return rep, fmt.Errorf("ingesting %s: %w", b.Board, err)
		}

		b.logger.Info("company ingested",
			"board", b.Board,
			"company", src.Name,
			"fetched", len(postings),
			"unique", len(unique),
			"saved", res.Saved,
		)
	}

	b.logger.Info("ingestion complete",
		"board", b.Board,
		"fetched", rep.Fetched,
		"saved", rep.Saved,
		"failed", rep.Failed,
	)

	return rep, nil
}
