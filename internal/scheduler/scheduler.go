package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/model"
)

// Scheduler owns the main sync loop: ticks on an interval, runs each board
// ingestor sequentially, then sweeps stale postings.
type Scheduler struct {
	ingestors     []*ingest.BoardIngestor
	store         model.PostingStore
	interval      time.Duration
	expiryHorizon time.Duration
	logger        *slog.Logger
}

// NewScheduler creates a scheduler that syncs all boards at the given
// interval. If expiryHorizon is positive, postings not refreshed within that
// horizon are flagged expired after each cycle.
func NewScheduler(ingestors []*ingest.BoardIngestor, store model.PostingStore, interval, expiryHorizon time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingestors:     ingestors,
		store:         store,
		interval:      interval,
		expiryHorizon: expiryHorizon,
		logger:        logger,
	}
}

// Run starts the sync loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"boards", len(s.ingestors),
	)

	// Run one immediate sync cycle.
	s.syncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.syncAll(ctx)
		}
	}
}

// syncAll runs each board ingestor sequentially with a small pause between
// boards, then marks postings that missed the refresh cycle as expired.
func (s *Scheduler) syncAll(ctx context.Context) {
	for i, ing := range s.ingestors {
		if ctx.Err() != nil {
			return
		}

		rep, err := ing.Run(ctx)
		if err != nil {
			s.logger.Error("board sync failed",
				"board", ing.Board,
				"error", err,
			)
		} else {
			s.logger.Info("board sync complete",
				"board", rep.Board,
				"fetched", rep.Fetched,
				"saved", rep.Saved,
				"failed", rep.Failed,
			)
		}

		// Small sleep between boards to be polite, except after the last one.
		if i < len(s.ingestors)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(1 * time.Second):
			}
		}
	}

	s.sweepExpired(ctx)
}

// sweepExpired flags postings whose updated_at predates the expiry horizon.
func (s *Scheduler) sweepExpired(ctx context.Context) {
	if s.expiryHorizon <= 0 || ctx.Err() != nil {
		return
	}

	n, err := s.store.MarkExpired(ctx, s.expiryHorizon)
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("flagged stale postings", "count", n)
	}
}
