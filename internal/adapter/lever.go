package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/workway/workway/internal/classify"
	"github.com/workway/workway/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Location string `json:"location"`
}

// leverJob represents a single posting in the Lever API response.
type leverJob struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Description   string          `json:"description"`
	Categories    leverCategories `json:"categories"`
	CreatedAt     int64           `json:"createdAt"`
	WorkplaceType string          `json:"workplaceType"`
	HostedURL     string          `json:"hostedUrl"`
	Applicants    int             `json:"applicants"`
}

// LeverAdapter fetches postings from the Lever public postings API and
// normalizes them into the common Posting shape. Lever ships descriptions
// inline, so no per-posting enrichment fetch is needed.
type LeverAdapter struct {
	companySlug string
	client      *http.Client
	logger      *slog.Logger
}

// NewLeverAdapter creates an adapter for one Lever board.
func NewLeverAdapter(companySlug string, client *http.Client, logger *slog.Logger) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		client:      client,
		logger:      logger,
	}
}

// FetchPostings retrieves the board's current postings. Lever reports only a
// creation timestamp, which stands in for UpdatedAt. Location passes through
// as the board gives it; absent optional fields stay empty.
func (a *LeverAdapter) FetchPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, strings.ToLower(a.companySlug))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("lever fetch for %s: unexpected status %d", a.companySlug, resp.StatusCode),
		}
	}

	var leverJobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	postings := make([]model.Posting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		p := model.Posting{
			JobID:           lj.ID,
			Title:           lj.Text,
			Company:         displayName(a.companySlug),
			CompanyImg:      logoURL(a.companySlug),
			Location:        lj.Categories.Location,
			AbsoluteURL:     lj.HostedURL,
			Source:          model.SourceLever,
			ExperienceLevel: classify.ExperienceLevel(lj.Text),
			EmploymentType:  classify.EmploymentType(lj.Text),
			Domain:          classify.Domain(lj.Text),
			Description:     decodeEntities(lj.Description),
			WorkplaceType:   lj.WorkplaceType,
			Applicants:      lj.Applicants,
		}

		if lj.CreatedAt > 0 {
			p.UpdatedAt = time.UnixMilli(lj.CreatedAt)
		}

		postings = append(postings, p)
	}

	return postings, nil
}
