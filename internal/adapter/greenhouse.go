package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/workway/workway/internal/classify"
	"github.com/workway/workway/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Applicants  int                `json:"applicants"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// greenhouseDetail is the per-job detail response; only the long-form
// description is used.
type greenhouseDetail struct {
	Content string `json:"content"`
}

// GreenhouseAdapter fetches postings from the Greenhouse public boards API
// and normalizes them into the common Posting shape.
type GreenhouseAdapter struct {
	boardToken string
	client     *http.Client
	logger     *slog.Logger
}

// NewGreenhouseAdapter creates an adapter for one Greenhouse board.
func NewGreenhouseAdapter(boardToken string, client *http.Client, logger *slog.Logger) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken: boardToken,
		client:     client,
		logger:     logger,
	}
}

// FetchPostings retrieves the board's current jobs and maps each into a
// Posting candidate. Long-form descriptions are fetched concurrently per
// posting, best-effort: a failed description fetch leaves the field empty
// and keeps the posting.
func (a *GreenhouseAdapter) FetchPostings(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, strings.ToLower(a.boardToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", a.boardToken, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	postings := make([]model.Posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		location := gj.Location.Name
		if location == "" {
			location = "Remote"
		}

		p := model.Posting{
			JobID:           strconv.FormatInt(gj.ID, 10),
			Title:           gj.Title,
			Company:         displayName(a.boardToken),
			CompanyImg:      logoURL(a.boardToken),
			Location:        location,
			AbsoluteURL:     gj.AbsoluteURL,
			Source:          model.SourceGreenhouse,
			ExperienceLevel: classify.ExperienceLevel(gj.Title),
			EmploymentType:  classify.EmploymentType(gj.Title),
			Domain:          classify.Domain(gj.Title),
			Applicants:      gj.Applicants,
		}

		if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
			p.UpdatedAt = t
		}

		postings = append(postings, p)
	}

	a.enrichDescriptions(ctx, postings, ghResp.Jobs)

	return postings, nil
}

// enrichDescriptions fires one detail fetch per posting and collects the
// results. Each slot is written by exactly one goroutine.
func (a *GreenhouseAdapter) enrichDescriptions(ctx context.Context, postings []model.Posting, jobs []greenhouseJob) {
	var wg sync.WaitGroup
	for i := range postings {
		wg.Add(1)
		go func(i int, jobID int64) {
			defer wg.Done()
			desc, err := a.fetchDescription(ctx, jobID)
			if err != nil {
				a.logger.Warn("description fetch failed",
					"board", a.boardToken,
					"job_id", jobID,
					"error", err,
				)
				return
			}
			postings[i].Description = desc
		}(i, jobs[i].ID)
	}
	wg.Wait()
}

// fetchDescription retrieves the long-form description for one job from the
// per-job detail endpoint and decodes the board's entity encoding.
func (a *GreenhouseAdapter) fetchDescription(ctx context.Context, jobID int64) (string, error) {
	url := fmt.Sprintf("%s/%s/jobs/%d", greenhouseBaseURL, strings.ToLower(a.boardToken), jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("greenhouse detail for job %d: %w", jobID, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("greenhouse detail for job %d: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("greenhouse detail for job %d: unexpected status %d", jobID, resp.StatusCode)
	}

	var detail greenhouseDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return "", fmt.Errorf("greenhouse detail for job %d: %w", jobID, err)
	}

	return decodeEntities(detail.Content), nil
}
