package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS outreach_history (
	domain   TEXT PRIMARY KEY,
	added_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outreach_results (
	seq           BIGSERIAL PRIMARY KEY,
	company       TEXT NOT NULL,
	person        TEXT NOT NULL,
	website       TEXT NOT NULL,
	email_subject TEXT NOT NULL,
	email_body    TEXT NOT NULL,
	x_url         TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT NOT NULL DEFAULT '',
	pain_points   TEXT[] NOT NULL DEFAULT '{}',
	hypothesis    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_outreach_history_added_at ON outreach_history(added_at);
`

var resultColumns = []string{
	"company", "person", "website", "email_subject", "email_body",
	"x_url", "linkedin_url", "pain_points", "hypothesis",
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Exists implements HistoryStore.
func (s *PostgresStore) Exists(ctx context.Context, rawURL string) (bool, error) {
	key := DomainKey(rawURL)
	if key == "" {
		return false, nil
	}
	var found bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM outreach_history WHERE domain = $1)`, key,
	).Scan(&found)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: lookup %s", key)
	}
	return found, nil
}

// Add implements HistoryStore.
func (s *PostgresStore) Add(ctx context.Context, rawURL string) error {
	key := DomainKey(rawURL)
	if key == "" {
		return eris.Errorf("postgres: malformed url %q", rawURL)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outreach_history (domain) VALUES ($1) ON CONFLICT (domain) DO NOTHING`, key,
	)
	return eris.Wrapf(err, "postgres: add %s", key)
}

// Domains implements HistoryStore.
func (s *PostgresStore) Domains(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT domain FROM outreach_history ORDER BY added_at, domain`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate history")
}

// Load implements ResultStore.
func (s *PostgresStore) Load(ctx context.Context) ([]model.LeadRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT company, person, website, email_subject, email_body,
		       x_url, linkedin_url, pain_points, hypothesis
		FROM outreach_results ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load results")
	}
	defer rows.Close()

	out := []model.LeadRecord{}
	for rows.Next() {
		var r model.LeadRecord
		if err := rows.Scan(&r.Company, &r.Person, &r.Website, &r.EmailSubject, &r.EmailBody,
			&r.XURL, &r.LinkedInURL, &r.PainPoints, &r.Hypothesis); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate results")
}

// Append implements ResultStore.
func (s *PostgresStore) Append(ctx context.Context, rec model.LeadRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO outreach_results (company, person, website, email_subject, email_body,
		                              x_url, linkedin_url, pain_points, hypothesis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		resultRow(rec)...,
	)
	return eris.Wrapf(err, "postgres: insert result %s", rec.Website)
}

// ImportHistory implements Importer. Domains already present are skipped.
func (s *PostgresStore) ImportHistory(ctx context.Context, domains []string) (int64, error) {
	var keys []string
	seen := make(map[string]bool)
	for _, d := range domains {
		key := DomainKey(d)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO outreach_history (domain)
		SELECT unnest($1::text[])
		ON CONFLICT (domain) DO NOTHING`, keys)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import history")
	}
	return tag.RowsAffected(), nil
}

// ImportResults implements Importer with a COPY.
func (s *PostgresStore) ImportResults(ctx context.Context, recs []model.LeadRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = resultRow(r)
	}
	return db.CopyFrom(ctx, s.pool, "outreach_results", resultColumns, rows)
}

func resultRow(r model.LeadRecord) []any {
	pain := r.PainPoints
	if pain == nil {
		pain = []string{}
	}
	return []any{
		r.Company, r.Person, r.Website, r.EmailSubject, r.EmailBody,
		r.XURL, r.LinkedInURL, pain, r.Hypothesis,
	}
}
