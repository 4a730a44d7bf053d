package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/workway/workway/internal/model"
)

// Ensure SQLiteStore implements model.PostingStore.
var _ model.PostingStore = (*SQLiteStore)(nil)

// SQLiteStore persists normalized postings in a SQLite database.
// UpdatedAt is stored as unix milliseconds so the (updated_at DESC,
// job_id DESC) index gives the exact pagination order.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the postings table and its pagination index exist.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite allows a single writer; funneling every connection through one
	// slot turns concurrent upserts into queued writes instead of
	// SQLITE_BUSY failures.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS postings (
		job_id           TEXT PRIMARY KEY,
		title            TEXT NOT NULL DEFAULT '',
		company          TEXT NOT NULL DEFAULT '',
		company_img      TEXT NOT NULL DEFAULT '',
		location         TEXT NOT NULL DEFAULT '',
		updated_at       INTEGER NOT NULL DEFAULT 0,
		is_expired       INTEGER NOT NULL DEFAULT 0,
		absolute_url     TEXT NOT NULL DEFAULT '',
		source           TEXT NOT NULL DEFAULT '',
		experience_level TEXT NOT NULL DEFAULT '',
		employment_type  TEXT NOT NULL DEFAULT '',
		domain           TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL DEFAULT '',
		workplace_type   TEXT NOT NULL DEFAULT '',
		applicants       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_postings_page ON postings (updated_at DESC, job_id DESC)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postings table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

const postingColumns = `job_id, title, company, company_img, location, updated_at,
	is_expired, absolute_url, source, experience_level, employment_type,
	domain, description, workplace_type, applicants`

// UpsertBatch writes each posting independently, keyed by job_id: insert if
// absent, full-field overwrite if present. Writes are issued concurrently
// and each is awaited on its own; a failed item is logged and counted, never
// aborting the rest of the batch. Items without a job_id are rejected before
// touching the database.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, postings []model.Posting) (model.BatchResult, error) {
	var (
		res model.BatchResult
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	for _, p := range postings {
		if p.JobID == "" {
			s.logger.Warn("skipping posting without job_id",
				"title", p.Title,
				"company", p.Company,
			)
			res.Skipped++
			continue
		}

		wg.Add(1)
		go func(p model.Posting) {
			defer wg.Done()
			err := s.upsert(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("upsert failed", "job_id", p.JobID, "error", err)
				res.Failed = append(res.Failed, model.ItemError{JobID: p.JobID, Err: err})
				return
			}
			res.Saved++
		}(p)
	}
	wg.Wait()

	// A cancelled context means the run itself is over, not just one item.
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("upsert batch: %w", err)
	}
	return res, nil
}

func (s *SQLiteStore) upsert(ctx context.Context, p model.Posting) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO postings (`+postingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			title            = excluded.title,
			company          = excluded.company,
			company_img      = excluded.company_img,
			location         = excluded.location,
			updated_at       = excluded.updated_at,
			is_expired       = excluded.is_expired,
			absolute_url     = excluded.absolute_url,
			source           = excluded.source,
			experience_level = excluded.experience_level,
			employment_type  = excluded.employment_type,
			domain           = excluded.domain,
			description      = excluded.description,
			workplace_type   = excluded.workplace_type,
			applicants       = excluded.applicants`,
		p.JobID, p.Title, p.Company, p.CompanyImg, p.Location, p.UpdatedAt.UnixMilli(),
		boolToInt(p.IsExpired), p.AbsoluteURL, string(p.Source), p.ExperienceLevel,
		p.EmploymentType, p.Domain, p.Description, p.WorkplaceType, p.Applicants,
	)
	if err != nil {
		return fmt.Errorf("upserting posting %s: %w", p.JobID, err)
	}
	return nil
}

// List reads one page of postings matching the query's filters, ordered by
// (updated_at DESC, job_id DESC). When After is set, only postings strictly
// after that position are returned.
func (s *SQLiteStore) List(ctx context.Context, q model.ListQuery) ([]model.Posting, error) {
	var (
		where []string
		args  []any
	)

	f := q.Filters
	if f.Title != "" {
		where = append(where, "title LIKE ?")
		args = append(args, "%"+f.Title+"%")
	}
	if f.Company != "" {
		where = append(where, "company = ?")
		args = append(args, f.Company)
	}
	if f.Location != "" {
		where = append(where, "location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.ExperienceLevel != "" {
		where = append(where, "experience_level = ?")
		args = append(args, f.ExperienceLevel)
	}
	if f.EmploymentType != "" {
		where = append(where, "employment_type = ?")
		args = append(args, f.EmploymentType)
	}
	if f.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, f.Domain)
	}
	if f.WorkplaceType != "" {
		where = append(where, "workplace_type = ?")
		args = append(args, f.WorkplaceType)
	}

	if q.After != nil {
		where = append(where, "(updated_at < ? OR (updated_at = ? AND job_id < ?))")
		millis := q.After.UpdatedAt.UnixMilli()
		args = append(args, millis, millis, q.After.JobID)
	}

	query := "SELECT " + postingColumns + " FROM postings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, job_id DESC LIMIT ?"
	args = append(args, q.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var postings []model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("listing postings: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	return postings, nil
}

// Latest returns the n freshest postings with no filters applied.
func (s *SQLiteStore) Latest(ctx context.Context, n int) ([]model.Posting, error) {
	return s.List(ctx, model.ListQuery{PageSize: n})
}

// MarkExpired flags postings whose UpdatedAt has fallen behind the given
// horizon. Rows are never deleted. Returns the number of newly flagged rows.
func (s *SQLiteStore) MarkExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	result, err := s.db.ExecContext(ctx,
		"UPDATE postings SET is_expired = 1 WHERE is_expired = 0 AND updated_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("marking expired postings: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanPosting(rows *sql.Rows) (model.Posting, error) {
	var (
		p         model.Posting
		millis    int64
		isExpired int
		source    string
	)
	err := rows.Scan(
		&p.JobID, &p.Title, &p.Company, &p.CompanyImg, &p.Location, &millis,
		&isExpired, &p.AbsoluteURL, &source, &p.ExperienceLevel,
		&p.EmploymentType, &p.Domain, &p.Description, &p.WorkplaceType, &p.Applicants,
	)
	if err != nil {
		return model.Posting{}, err
	}
	p.UpdatedAt = time.UnixMilli(millis).UTC()
	p.IsExpired = isExpired != 0
	p.Source = model.Source(source)
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
