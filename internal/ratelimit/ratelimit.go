package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/workway/workway/internal/model"
)

// BoardRateLimiter enforces a minimum delay between requests to the same
// job board backend. Company fetchers for one board share a single limiter
// so back-to-back company syncs stay under the board's request limits.
type BoardRateLimiter struct {
	mu       sync.Mutex
	lastCall map[model.Source]time.Time
	minDelay time.Duration
}

// NewBoardRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same board.
func NewBoardRateLimiter(minDelay time.Duration) *BoardRateLimiter {
	return &BoardRateLimiter{
		lastCall: make(map[model.Source]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given board. Returns an error if the context is cancelled while waiting.
func (r *BoardRateLimiter) Wait(ctx context.Context, board model.Source) error {
	r.mu.Lock()
	last, ok := r.lastCall[board]
	now := time.Now()

	if !ok {
		// First request for this board — no wait needed.
		r.lastCall[board] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[board] = now
		r.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", board, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[board] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedFetcher is a decorator that enforces board-level rate limiting
// before delegating to the wrapped PostingFetcher.
type RateLimitedFetcher struct {
	inner   model.PostingFetcher
	limiter *BoardRateLimiter
	board   model.Source
}

// NewRateLimitedFetcher wraps a PostingFetcher with board-level rate
// limiting. All fetchers targeting the same board should share the same
// limiter instance.
func NewRateLimitedFetcher(inner model.PostingFetcher, limiter *BoardRateLimiter, board model.Source) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		board:   board,
	}
}

// FetchPostings waits for the rate limiter to allow a request, then
// delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchPostings(ctx context.Context) ([]model.Posting, error) {
	if err := f.limiter.Wait(ctx, f.board); err != nil {
		return nil, err
	}
	return f.inner.FetchPostings(ctx)
}
