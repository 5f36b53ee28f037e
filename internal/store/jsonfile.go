package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// JSONStore keeps history and results in two JSON array files, rewritten
// atomically on every change.
type JSONStore struct {
	*JSONHistory
	*JSONResults
}

// OpenJSON opens (or lazily creates) the two files.
func OpenJSON(historyPath, resultsPath string) *JSONStore {
	return &JSONStore{
		JSONHistory: NewJSONHistory(historyPath),
		JSONResults: NewJSONResults(resultsPath),
	}
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }

// ImportHistory implements Importer. Only domains not already present are
// counted.
func (s *JSONStore) ImportHistory(_ context.Context, domains []string) (int64, error) {
	var n int64
	for _, d := range domains {
		key := DomainKey(d)
		if key == "" {
			continue
		}
		added, err := s.add(key)
		if err != nil {
			return n, err
		}
		if added {
			n++
		}
	}
	return n, nil
}

// ImportResults implements Importer.
func (s *JSONStore) ImportResults(ctx context.Context, recs []model.LeadRecord) (int64, error) {
	for i, r := range recs {
		if err := s.Append(ctx, r); err != nil {
			return int64(i), err
		}
	}
	return int64(len(recs)), nil
}

// JSONHistory is a HistoryStore over a JSON array of domain keys. The set
// is loaded once and held in memory.
type JSONHistory struct {
	path string

	mu      sync.Mutex
	loaded  bool
	domains []string
	seen    map[string]struct{}
}

// NewJSONHistory creates a history backed by path.
func NewJSONHistory(path string) *JSONHistory {
	return &JSONHistory{path: path}
}

// load reads the file once. A read error leaves the history unloaded so the
// next call retries instead of overwriting the file with a partial set.
func (h *JSONHistory) load() error {
	if h.loaded {
		return nil
	}

	var raw []string
	ok, err := readJSONFile(h.path, &raw)
	if err != nil {
		return eris.Wrap(err, "history: load")
	}
	if !ok {
		raw = nil
	}
	h.seen = make(map[string]struct{}, len(raw))
	h.domains = nil
	for _, d := range raw {
		key := DomainKey(d)
		if key == "" {
			continue
		}
		if _, ok := h.seen[key]; ok {
			continue
		}
		h.seen[key] = struct{}{}
		h.domains = append(h.domains, key)
	}
	h.loaded = true
	return nil
}

// Exists implements HistoryStore.
func (h *JSONHistory) Exists(_ context.Context, rawURL string) (bool, error) {
	key := DomainKey(rawURL)
	if key == "" {
		return false, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(); err != nil {
		return false, err
	}
	_, ok := h.seen[key]
	return ok, nil
}

// Add implements HistoryStore.
func (h *JSONHistory) Add(_ context.Context, rawURL string) error {
	key := DomainKey(rawURL)
	if key == "" {
		return eris.Errorf("history: malformed url %q", rawURL)
	}
	_, err := h.add(key)
	return err
}

// add stores an already normalized key and reports whether it was new.
func (h *JSONHistory) add(key string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(); err != nil {
		return false, err
	}
	if _, ok := h.seen[key]; ok {
		return false, nil
	}

	next := append(append([]string(nil), h.domains...), key)
	if err := writeJSONFile(h.path, next); err != nil {
		return false, eris.Wrap(err, "history: save")
	}
	h.domains = next
	h.seen[key] = struct{}{}
	return true, nil
}

// Domains implements HistoryStore.
func (h *JSONHistory) Domains(context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(); err != nil {
		return nil, err
	}
	return append([]string(nil), h.domains...), nil
}

// JSONResults is a ResultStore over a JSON array of lead records. Every
// call reads the file fresh so other processes' appends are visible.
type JSONResults struct {
	path string
	mu   sync.Mutex
}

// NewJSONResults creates a result store backed by path.
func NewJSONResults(path string) *JSONResults {
	return &JSONResults{path: path}
}

// Load implements ResultStore. A missing or corrupt file loads as empty; a
// file that exists but cannot be read is an error.
func (r *JSONResults) Load(context.Context) ([]model.LeadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *JSONResults) read() ([]model.LeadRecord, error) {
	var recs []model.LeadRecord
	ok, err := readJSONFile(r.path, &recs)
	if err != nil {
		return nil, eris.Wrap(err, "results: load")
	}
	if !ok || recs == nil {
		recs = []model.LeadRecord{}
	}
	return recs, nil
}

// Append implements ResultStore. The file is left untouched when the
// existing records cannot be read.
func (r *JSONResults) Append(_ context.Context, rec model.LeadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.read()
	if err != nil {
		return err
	}
	return eris.Wrap(writeJSONFile(r.path, append(recs, rec)), "results: save")
}

// readJSONFile decodes path into v and reports whether it held data. A
// missing or empty file holds no data. A corrupt file is moved aside under a
// unique ".corrupt-" name so the next write does not destroy it. Any other
// read failure is returned.
func readJSONFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "read %s", path)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		aside := corruptPath(path)
		zap.L().Warn("store: corrupt file, starting empty",
			zap.String("path", path),
			zap.String("moved_to", aside),
			zap.Error(err),
		)
		if rerr := os.Rename(path, aside); rerr != nil {
			return false, eris.Wrapf(rerr, "set aside corrupt %s", path)
		}
		return false, nil
	}
	return true, nil
}

// corruptPath picks an unused name for a corrupt file next to path.
func corruptPath(path string) string {
	base := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405")
	name := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal")
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "create temp")
	}
	name := tmp.Name()
	defer os.Remove(name) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "write temp")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "sync temp")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "close temp")
	}
	if err := os.Rename(name, path); err != nil {
		return eris.Wrapf(err, "rename to %s", path)
	}
	return nil
}
