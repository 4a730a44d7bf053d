package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/workway/workway/internal/announce"
	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/query"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pagingStore serves List from an in-memory slice sorted the same way the
// real store sorts, honoring the keyset predicate.
type pagingStore struct {
	postings []model.Posting
	listErr  error
}

func (s *pagingStore) UpsertBatch(_ context.Context, postings []model.Posting) (model.BatchResult, error) {
	s.postings = append(s.postings, postings...)
	return model.BatchResult{Saved: len(postings)}, nil
}

func (s *pagingStore) List(_ context.Context, q model.ListQuery) ([]model.Posting, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	sorted := append([]model.Posting(nil), s.postings...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
		}
		return sorted[i].JobID > sorted[j].JobID
	})

	var out []model.Posting
	for _, p := range sorted {
		if q.After != nil {
			after := *q.After
			if p.UpdatedAt.After(after.UpdatedAt) ||
				(p.UpdatedAt.Equal(after.UpdatedAt) && p.JobID >= after.JobID) {
				continue
			}
		}
		out = append(out, p)
		if len(out) == q.PageSize {
			break
		}
	}
	return out, nil
}

func (s *pagingStore) Latest(ctx context.Context, n int) ([]model.Posting, error) {
	return s.List(ctx, model.ListQuery{PageSize: n})
}

func (s *pagingStore) MarkExpired(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type stubFetcher struct {
	postings []model.Posting
}

func (f *stubFetcher) FetchPostings(_ context.Context) ([]model.Posting, error) {
	return f.postings, nil
}

type okPoster struct{ calls int }

func (p *okPoster) Tweet(_ context.Context, _ string) (string, error) {
	p.calls++
	return "1", nil
}

func (p *okPoster) Reply(_ context.Context, _, _ string) (string, error) {
	p.calls++
	return "2", nil
}

func at(day int) time.Time {
	return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, store *pagingStore, announcer *announce.Job) *httptest.Server {
	t.Helper()
	ingestors := map[string]*ingest.BoardIngestor{
		"greenhouse": ingest.NewBoardIngestor(
			model.SourceGreenhouse,
			[]ingest.CompanySource{{Name: "acme", Fetcher: &stubFetcher{postings: []model.Posting{
				{JobID: "g1", Title: "Engineer", Company: "Acme", UpdatedAt: at(1)},
			}}}},
			store,
			discardLogger(),
		),
		"lever": ingest.NewBoardIngestor(
			model.SourceLever,
			[]ingest.CompanySource{{Name: "acme", Fetcher: &stubFetcher{}}},
			store,
			discardLogger(),
		),
	}
	srv := New(query.NewService(store), ingestors, announcer, discardLogger())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// --- Tests ---

func TestJobs_EmptyStore(t *testing.T) {
	ts := newTestServer(t, &pagingStore{}, nil)

	resp, err := http.Get(ts.URL + "/api/jobs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	// jobs must be [] even when empty, and the marker must be null.
	if string(raw["jobs"]) != "[]" {
		t.Errorf("jobs = %s, want []", raw["jobs"])
	}
	if string(raw["nextPageMarker"]) != "null" {
		t.Errorf("nextPageMarker = %s, want null", raw["nextPageMarker"])
	}
}

func TestJobs_PaginationWalk(t *testing.T) {
	store := &pagingStore{postings: []model.Posting{
		{JobID: "2", Title: "A", UpdatedAt: at(5)},
		{JobID: "1", Title: "B", UpdatedAt: at(5)},
		{JobID: "9", Title: "C", UpdatedAt: at(3)},
	}}
	ts := newTestServer(t, store, nil)

	var page jobsResponse
	if code := getJSON(t, ts.URL+"/api/jobs?pageSize=2", &page); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(page.Jobs) != 2 || page.Jobs[0].JobID != "2" || page.Jobs[1].JobID != "1" {
		t.Fatalf("first page = %+v", page.Jobs)
	}
	if page.NextPageMarker == nil {
		t.Fatal("expected a marker on a non-empty page")
	}

	var second jobsResponse
	u := ts.URL + "/api/jobs?pageSize=2&lastPageMarker=" + url.QueryEscape(*page.NextPageMarker)
	if code := getJSON(t, u, &second); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(second.Jobs) != 1 || second.Jobs[0].JobID != "9" {
		t.Fatalf("second page = %+v", second.Jobs)
	}
	if second.NextPageMarker == nil {
		t.Fatal("short page still carries a marker")
	}

	var last jobsResponse
	u = ts.URL + "/api/jobs?pageSize=2&lastPageMarker=" + url.QueryEscape(*second.NextPageMarker)
	if code := getJSON(t, u, &last); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(last.Jobs) != 0 || last.NextPageMarker != nil {
		t.Fatalf("final page = %+v", last)
	}
}

func TestJobs_FilterPassthrough(t *testing.T) {
	store := &pagingStore{postings: []model.Posting{
		{JobID: "1", Title: "Backend Engineer", UpdatedAt: at(1)},
	}}
	ts := newTestServer(t, store, nil)

	var page jobsResponse
	if code := getJSON(t, ts.URL+"/api/jobs?title=engineer", &page); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	// The fake store ignores filters; this only checks the param is accepted.
	if len(page.Jobs) != 1 {
		t.Fatalf("jobs = %+v", page.Jobs)
	}
}

func TestJobs_BadPageSize(t *testing.T) {
	ts := newTestServer(t, &pagingStore{}, nil)

	for _, raw := range []string{"abc", "0", "-1", "101"} {
		code := getJSON(t, ts.URL+"/api/jobs?pageSize="+raw, nil)
		if code != http.StatusBadRequest {
			t.Errorf("pageSize=%s: status = %d, want 400", raw, code)
		}
	}
}

func TestJobs_BadMarker(t *testing.T) {
	ts := newTestServer(t, &pagingStore{}, nil)

	var body errorResponse
	code := getJSON(t, ts.URL+"/api/jobs?lastPageMarker=%21%21not-base64", &body)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if body.Message == "" {
		t.Error("expected a message in the 400 body")
	}
}

func TestJobs_StoreErrorIs500(t *testing.T) {
	store := &pagingStore{listErr: errors.New("db gone")}
	ts := newTestServer(t, store, nil)

	var body errorResponse
	code := getJSON(t, ts.URL+"/api/jobs", &body)
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if body.Message != "Internal server error." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCron_Greenhouse(t *testing.T) {
	store := &pagingStore{}
	ts := newTestServer(t, store, nil)

	var rep ingest.Report
	if code := getJSON(t, ts.URL+"/api/cron/greenhouse", &rep); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if rep.Board != model.SourceGreenhouse || rep.Saved != 1 {
		t.Errorf("report = %+v", rep)
	}
	if len(store.postings) != 1 {
		t.Errorf("store has %d postings, want 1", len(store.postings))
	}
}

func TestCron_TweetLatestJobs(t *testing.T) {
	store := &pagingStore{postings: []model.Posting{
		{JobID: "1", Title: "Engineer", Company: "Acme", UpdatedAt: at(1)},
	}}
	poster := &okPoster{}
	job := announce.NewJob(store, poster, 3, discardLogger())
	ts := newTestServer(t, store, job)

	var res announce.Result
	if code := getJSON(t, ts.URL+"/api/cron/tweetLatestJobs", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !res.Success || res.TweetedJobsCount != 1 {
		t.Errorf("result = %+v", res)
	}
	// Header + job + footer.
	if poster.calls != 3 {
		t.Errorf("poster calls = %d, want 3", poster.calls)
	}
}

func TestCron_TweetNotConfigured(t *testing.T) {
	ts := newTestServer(t, &pagingStore{}, nil)

	code := getJSON(t, ts.URL+"/api/cron/tweetLatestJobs", nil)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &pagingStore{}, nil)

	var body map[string]string
	if code := getJSON(t, ts.URL+"/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
