package dedup

import (
	"reflect"
	"testing"
	"time"

	"github.com/workway/workway/internal/model"
)

func posting(id, title, company, location string, updatedAt time.Time) model.Posting {
	return model.Posting{
		JobID:     id,
		Title:     title,
		Company:   company,
		Location:  location,
		UpdatedAt: updatedAt,
	}
}

func TestCollapse_KeepsLatestPerKey(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	in := []model.Posting{
		posting("1", "Backend Engineer", "Acme", "Remote", jan),
		posting("2", "Backend Engineer", "Acme", "Remote", feb),
	}

	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(out))
	}
	if out[0].JobID != "2" {
		t.Errorf("expected the February record to survive, got job %s", out[0].JobID)
	}
}

func TestCollapse_KeyIsCaseInsensitive(t *testing.T) {
	now := time.Now()
	in := []model.Posting{
		posting("1", "Backend Engineer", "Acme", "Remote", now),
		posting("2", "backend engineer", "ACME", "remote", now.Add(time.Hour)),
	}

	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(out))
	}
	if out[0].JobID != "2" {
		t.Errorf("expected later posting to survive, got job %s", out[0].JobID)
	}
}

func TestCollapse_DistinctKeysAllSurvive(t *testing.T) {
	now := time.Now()
	in := []model.Posting{
		posting("1", "Backend Engineer", "Acme", "Remote", now),
		posting("2", "Backend Engineer", "Acme", "NYC", now),
		posting("3", "Backend Engineer", "Globex", "Remote", now),
		posting("4", "Frontend Engineer", "Acme", "Remote", now),
	}

	out := Collapse(in)
	if len(out) != 4 {
		t.Fatalf("expected 4 postings, got %d", len(out))
	}
}

func TestCollapse_EqualTimestampsKeepFirstSeen(t *testing.T) {
	now := time.Now()
	in := []model.Posting{
		posting("first", "Backend Engineer", "Acme", "Remote", now),
		posting("second", "Backend Engineer", "Acme", "Remote", now),
	}

	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(out))
	}
	if out[0].JobID != "first" {
		t.Errorf("expected the first-seen posting on a tie, got job %s", out[0].JobID)
	}
}

func TestCollapse_OutputNeverLargerThanInput(t *testing.T) {
	now := time.Now()
	var in []model.Posting
	for i := 0; i < 20; i++ {
		in = append(in, posting("x", "Engineer", "Acme", "Remote", now))
	}
	if got := len(Collapse(in)); got > len(in) {
		t.Errorf("output %d larger than input %d", got, len(in))
	}
	if got := len(Collapse(nil)); got != 0 {
		t.Errorf("expected empty output for nil input, got %d", got)
	}
}

func TestCollapse_Idempotent(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	in := []model.Posting{
		posting("1", "Backend Engineer", "Acme", "Remote", jan),
		posting("2", "Backend Engineer", "Acme", "Remote", feb),
		posting("3", "iOS Engineer", "Globex", "NYC", jan),
	}

	once := Collapse(in)
	twice := Collapse(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Collapse is not idempotent:\n once  %v\n twice %v", once, twice)
	}
}
