package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Writes are fully synced so an acknowledged Add survives a crash.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS history (
	domain   TEXT PRIMARY KEY,
	added_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS results (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	company       TEXT NOT NULL,
	person        TEXT NOT NULL,
	website       TEXT NOT NULL,
	email_subject TEXT NOT NULL,
	email_body    TEXT NOT NULL,
	x_url         TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT NOT NULL DEFAULT '',
	pain_points   TEXT NOT NULL DEFAULT '[]',
	hypothesis    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists implements HistoryStore.
func (s *SQLiteStore) Exists(ctx context.Context, rawURL string) (bool, error) {
	key := DomainKey(rawURL)
	if key == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE domain = ?`, key).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: lookup %s", key)
	}
	return n > 0, nil
}

// Add implements HistoryStore.
func (s *SQLiteStore) Add(ctx context.Context, rawURL string) error {
	key := DomainKey(rawURL)
	if key == "" {
		return eris.Errorf("sqlite: malformed url %q", rawURL)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO history (domain, added_at) VALUES (?, ?)`,
		key, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: add %s", key)
}

// Domains implements HistoryStore.
func (s *SQLiteStore) Domains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain FROM history ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list history")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate history")
}

// Load implements ResultStore.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.LeadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company, person, website, email_subject, email_body,
		       x_url, linkedin_url, pain_points, hypothesis
		FROM results ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load results")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.LeadRecord{}
	for rows.Next() {
		var (
			r    model.LeadRecord
			pain string
		)
		if err := rows.Scan(&r.Company, &r.Person, &r.Website, &r.EmailSubject, &r.EmailBody,
			&r.XURL, &r.LinkedInURL, &pain, &r.Hypothesis); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if err := json.Unmarshal([]byte(pain), &r.PainPoints); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode pain points for %s", r.Website)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

// Append implements ResultStore.
func (s *SQLiteStore) Append(ctx context.Context, rec model.LeadRecord) error {
	return s.insertResult(ctx, s.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insertResult(ctx context.Context, ex execer, rec model.LeadRecord) error {
	pain := rec.PainPoints
	if pain == nil {
		pain = []string{}
	}
	painJSON, err := json.Marshal(pain)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pain points")
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO results (company, person, website, email_subject, email_body,
		                     x_url, linkedin_url, pain_points, hypothesis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Company, rec.Person, rec.Website, rec.EmailSubject, rec.EmailBody,
		rec.XURL, rec.LinkedInURL, string(painJSON), rec.Hypothesis, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert result %s", rec.Website)
}

// ImportHistory implements Importer in a single transaction.
func (s *SQLiteStore) ImportHistory(ctx context.Context, domains []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for _, d := range domains {
		key := DomainKey(d)
		if key == "" {
			continue
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO history (domain, added_at) VALUES (?, ?)`, key, now)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import %s", key)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			n++
		}
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: commit import")
}

// ImportResults implements Importer in a single transaction.
func (s *SQLiteStore) ImportResults(ctx context.Context, recs []model.LeadRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range recs {
		if err := s.insertResult(ctx, tx, r); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return int64(len(recs)), nil
}
