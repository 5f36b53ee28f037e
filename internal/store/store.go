// Package store persists the processed-domain history and the finalized
// lead records, as JSON files, SQLite or Postgres.
package store

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// HistoryStore is the durable set of processed domains.
type HistoryStore interface {
	// Exists reports whether the URL's domain was added before. Malformed
	// URLs never exist.
	Exists(ctx context.Context, rawURL string) (bool, error)
	// Add records the URL's domain. It is idempotent and durable on return.
	Add(ctx context.Context, rawURL string) error
	// Domains lists the stored domain keys in insertion order.
	Domains(ctx context.Context) ([]string, error)
}

// ResultStore is the append-only collection of finalized leads.
type ResultStore interface {
	// Load returns every stored record in append order.
	Load(ctx context.Context) ([]model.LeadRecord, error)
	// Append stores rec. It is durable on return.
	Append(ctx context.Context, rec model.LeadRecord) error
}

// Store bundles both collections behind one backend.
type Store interface {
	HistoryStore
	ResultStore
	Close() error
}

// Importer bulk-loads existing data, e.g. when moving off the JSON files.
type Importer interface {
	ImportHistory(ctx context.Context, domains []string) (int64, error)
	ImportResults(ctx context.Context, recs []model.LeadRecord) (int64, error)
}

var fold = cases.Fold()

// DomainKey normalizes a URL to its history key: the host without port or
// a leading "www.", case-folded. Scheme-less input ("acme.com/x") is read
// as a host. Malformed URLs yield "".
func DomainKey(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(fold.String(u.Hostname()), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " /\\") {
		return ""
	}
	return host
}

// Open builds the store selected by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "json":
		return OpenJSON(cfg.HistoryFile, cfg.ResultsFile), nil
	case "sqlite":
		s, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
