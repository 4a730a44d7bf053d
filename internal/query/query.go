// Package query serves cursor-paginated, filterable reads over the posting
// store and owns the page-marker contract.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/workway/workway/internal/model"
)

const (
	// DefaultPageSize applies when the client sends no page size.
	DefaultPageSize = 10
	// MaxPageSize caps a single page.
	MaxPageSize = 100
)

// ErrBadPageSize marks an out-of-range page size. Handlers map it to a 400.
var ErrBadPageSize = errors.New("pageSize must be between 1 and 100")

// Request is one client read: an optional marker from the previous page,
// an optional page size (0 means default), and optional filters.
type Request struct {
	LastPageMarker string
	PageSize       int
	Filters        model.Filters
}

// Page is one page of results. NextPageMarker is present whenever the page
// is non-empty; the client stops once a fetch returns an empty page. A page
// shorter than the requested size does not by itself mean the end.
type Page struct {
	Jobs           []model.Posting
	NextPageMarker *string
}

// Service reads pages from the posting store.
type Service struct {
	store model.PostingStore
}

func NewService(store model.PostingStore) *Service {
	return &Service{store: store}
}

// Jobs validates the request, resolves the marker, and reads one page. The
// returned marker encodes the position of the last item, so consecutive
// calls walk the (updatedAt DESC, job_id DESC) order without gaps or
// repeats.
func (s *Service) Jobs(ctx context.Context, req Request) (Page, error) {
	size := req.PageSize
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: got %d", ErrBadPageSize, req.PageSize)
	}

	q := model.ListQuery{Filters: req.Filters, PageSize: size}
	if req.LastPageMarker != "" {
		pos, err := DecodeMarker(req.LastPageMarker)
		if err != nil {
			return Page{}, err
		}
		q.After = &pos
	}

	jobs, err := s.store.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("reading jobs page: %w", err)
	}

	page := Page{Jobs: jobs}
	if len(jobs) > 0 {
		last := jobs[len(jobs)-1]
		marker := EncodeMarker(model.Position{UpdatedAt: last.UpdatedAt, JobID: last.JobID})
		page.NextPageMarker = &marker
	}
	return page, nil
}
