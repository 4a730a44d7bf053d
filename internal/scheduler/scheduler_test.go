package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/model"
)

// --- Mock implementations ---

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) FetchPostings(_ context.Context) ([]model.Posting, error) {
	f.calls.Add(1)
	return nil, nil
}

type errorFetcher struct {
	calls atomic.Int32
}

func (f *errorFetcher) FetchPostings(_ context.Context) ([]model.Posting, error) {
	f.calls.Add(1)
	return nil, errors.New("fetch failed")
}

type sweepCountingStore struct {
	sweeps atomic.Int32
}

func (s *sweepCountingStore) UpsertBatch(_ context.Context, postings []model.Posting) (model.BatchResult, error) {
	return model.BatchResult{Saved: len(postings)}, nil
}

func (s *sweepCountingStore) List(_ context.Context, _ model.ListQuery) ([]model.Posting, error) {
	return nil, nil
}

func (s *sweepCountingStore) Latest(_ context.Context, _ int) ([]model.Posting, error) {
	return nil, nil
}

func (s *sweepCountingStore) MarkExpired(_ context.Context, _ time.Duration) (int64, error) {
	s.sweeps.Add(1)
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeIngestor(board model.Source, store model.PostingStore, fetcher model.PostingFetcher) *ingest.BoardIngestor {
	return ingest.NewBoardIngestor(
		board,
		[]ingest.CompanySource{{Name: "testco", Fetcher: fetcher}},
		store,
		discardLogger(),
	)
}

// --- Tests ---

func TestRun_CancelReturnsPromptly(t *testing.T) {
	store := &sweepCountingStore{}
	ing := makeIngestor(model.SourceGreenhouse, store, &countingFetcher{})
	s := NewScheduler([]*ingest.BoardIngestor{ing}, store, time.Hour, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_SyncsOnInterval(t *testing.T) {
	store := &sweepCountingStore{}
	fetcher := &countingFetcher{}
	ing := makeIngestor(model.SourceGreenhouse, store, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler([]*ingest.BoardIngestor{ing}, store, 100*time.Millisecond, time.Hour, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Allow time for at least two full passes (sync → sleep interval → sync).
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	if got := fetcher.calls.Load(); got < 2 {
		t.Errorf("fetcher calls = %d, want >= 2", got)
	}
}

func TestRun_OneBoardErrorOthersStillRun(t *testing.T) {
	store := &sweepCountingStore{}
	errF := &errorFetcher{}
	okF := &countingFetcher{}

	ingestors := []*ingest.BoardIngestor{
		makeIngestor(model.SourceGreenhouse, store, errF),
		makeIngestor(model.SourceLever, store, okF),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ingestors, store, time.Hour, time.Hour, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// First board fails, second board runs after the 1s inter-board pause.
	time.Sleep(1500 * time.Millisecond)
	cancel()
	<-done

	if got := errF.calls.Load(); got < 1 {
		t.Errorf("error fetcher calls = %d, want >= 1", got)
	}
	if got := okF.calls.Load(); got < 1 {
		t.Errorf("ok fetcher calls = %d, want >= 1 (boards should run independently)", got)
	}
}

func TestRun_SweepsExpiredAfterCycle(t *testing.T) {
	store := &sweepCountingStore{}
	ing := makeIngestor(model.SourceGreenhouse, store, &countingFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler([]*ingest.BoardIngestor{ing}, store, time.Hour, 24*time.Hour, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	if got := store.sweeps.Load(); got != 1 {
		t.Errorf("expiry sweeps = %d, want 1", got)
	}
}

func TestRun_NoSweepWithoutHorizon(t *testing.T) {
	store := &sweepCountingStore{}
	ing := makeIngestor(model.SourceGreenhouse, store, &countingFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler([]*ingest.BoardIngestor{ing}, store, time.Hour, 0, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	if got := store.sweeps.Load(); got != 0 {
		t.Errorf("expiry sweeps = %d, want 0 when horizon is disabled", got)
	}
}
