// Package dedup collapses posting candidates that describe the same logical
// job into the freshest one.
package dedup

import (
	"strings"

	"github.com/workway/workway/internal/model"
)

// keySep joins the key parts; the unit separator never occurs in titles,
// company names, or locations.
const keySep = "\x1f"

// Key returns the normalized identity of a posting: lower-cased title,
// company, and location.
func Key(p model.Posting) string {
	return strings.ToLower(p.Title + keySep + p.Company + keySep + p.Location)
}

// Collapse returns at most one posting per normalized key, keeping the
// candidate with the strictly latest UpdatedAt. On equal timestamps the
// first candidate seen wins, so the same input order always collapses to
// the same output.
func Collapse(postings []model.Posting) []model.Posting {
	byKey := make(map[string]int, len(postings))
	out := make([]model.Posting, 0, len(postings))

	for _, p := range postings {
		k := Key(p)
		if i, ok := byKey[k]; ok {
			if p.UpdatedAt.After(out[i].UpdatedAt) {
				out[i] = p
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, p)
	}

	return out
}
