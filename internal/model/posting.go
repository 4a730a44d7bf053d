package model

import (
	"context"
	"time"
)

// Source identifies which board connector produced a posting.
type Source string

const (
	SourceGreenhouse Source = "Greenhouse"
	SourceLever      Source = "Lever"
)

// Posting is the normalized job listing stored by WorkWay, regardless of
// which board it came from.
type Posting struct {
	JobID           string    `json:"job_id"`          // stable external identifier, unique key for upsert
	Title           string    `json:"title"`
	Company         string    `json:"company"`         // display name, first letter capitalized
	CompanyImg      string    `json:"company_img"`     // logo-lookup guess by company domain
	Location        string    `json:"location"`
	UpdatedAt       time.Time `json:"updatedAt"`       // freshness source of truth, primary sort key
	IsExpired       bool      `json:"isExpired"`
	AbsoluteURL     string    `json:"absolute_url"`
	Source          Source    `json:"source"`
	ExperienceLevel string    `json:"experienceLevel"` // classifier tag
	EmploymentType  string    `json:"employmentType"`  // classifier tag
	Domain          string    `json:"domain"`          // classifier tag
	Description     string    `json:"description"`
	WorkplaceType   string    `json:"workplaceType,omitempty"` // Lever only
	Applicants      int       `json:"applicants"`
}

// PostingFetcher fetches normalized posting candidates from one company's
// board (e.g. a single Greenhouse board token).
type PostingFetcher interface {
	FetchPostings(ctx context.Context) ([]Posting, error)
}

// Filters narrows a posting read. Zero-value fields are ignored; set fields
// are AND-combined. Title and Location match case-insensitive substrings,
// the rest match exactly.
type Filters struct {
	Title           string
	Company         string
	Location        string
	ExperienceLevel string
	EmploymentType  string
	Domain          string
	WorkplaceType   string
}

// Position is a point in the (UpdatedAt DESC, JobID DESC) total order.
type Position struct {
	UpdatedAt time.Time
	JobID     string
}

// ListQuery describes one page read over the posting store. After, when set,
// restricts results to postings strictly after that position in sort order.
type ListQuery struct {
	Filters  Filters
	After    *Position
	PageSize int
}

// ItemError records one posting that failed to persist within a batch.
type ItemError struct {
	JobID string
	Err   error
}

// BatchResult reports the outcome of a batch upsert. A failed or skipped
// item never aborts the rest of the batch.
type BatchResult struct {
	Saved   int         // upserted successfully
	Skipped int         // rejected before persistence (missing job_id)
	Failed  []ItemError // attempted but errored
}

// PostingStore persists normalized postings keyed by JobID and serves
// filtered, cursor-paginated reads.
type PostingStore interface {
	UpsertBatch(ctx context.Context, postings []Posting) (BatchResult, error)
	List(ctx context.Context, q ListQuery) ([]Posting, error)
	Latest(ctx context.Context, n int) ([]Posting, error)
	MarkExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
