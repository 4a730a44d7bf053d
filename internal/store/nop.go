package store

import (
	"context"
	"time"

	"github.com/workway/workway/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Upserts report every valid
// item as saved without persisting anything, and reads return nothing.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) UpsertBatch(_ context.Context, postings []model.Posting) (model.BatchResult, error) {
	var res model.BatchResult
	for _, p := range postings {
		if p.JobID == "" {
			res.Skipped++
			continue
		}
		res.Saved++
	}
	return res, nil
}

func (s *NopStore) List(_ context.Context, _ model.ListQuery) ([]model.Posting, error) {
	return nil, nil
}

func (s *NopStore) Latest(_ context.Context, _ int) ([]model.Posting, error) { return nil, nil }

func (s *NopStore) MarkExpired(_ context.Context, _ time.Duration) (int64, error) { return 0, nil }
