package campaign

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

type mockDiscoverer struct{ mock.Mock }

func (m *mockDiscoverer) FindCompanies(ctx context.Context, niche string, count int) []model.Candidate {
	args := m.Called(ctx, niche, count)
	out, _ := args.Get(0).([]model.Candidate)
	return out
}

type mockEnricher struct{ mock.Mock }

func (m *mockEnricher) Scrape(ctx context.Context, siteURL string) enrich.Outcome[model.ScrapedSite] {
	return m.Called(ctx, siteURL).Get(0).(enrich.Outcome[model.ScrapedSite])
}

func (m *mockEnricher) Qualify(ctx context.Context, content, fallbackName string) enrich.Outcome[model.BusinessProfile] {
	return m.Called(ctx, content, fallbackName).Get(0).(enrich.Outcome[model.BusinessProfile])
}

func (m *mockEnricher) Identify(ctx context.Context, company, content string, siteSocials model.Socials) enrich.Outcome[model.DecisionMaker] {
	return m.Called(ctx, company, content, siteSocials).Get(0).(enrich.Outcome[model.DecisionMaker])
}

func (m *mockEnricher) Draft(ctx context.Context, in enrich.DraftRequest) enrich.Outcome[model.EmailDraft] {
	return m.Called(ctx, in).Get(0).(enrich.Outcome[model.EmailDraft])
}

// failingResults is a ResultStore whose writes always fail.
type failingResults struct{ err error }

func (f failingResults) Load(context.Context) ([]model.LeadRecord, error) { return nil, nil }

func (f failingResults) Append(context.Context, model.LeadRecord) error { return f.err }

type countingObserver struct {
	mu                          sync.Mutex
	scanned, qualified, records int
	failures                    map[model.Node]enrich.FailureKind
}

func (o *countingObserver) SiteScanned() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scanned++
}

func (o *countingObserver) LeadQualified() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.qualified++
}

func (o *countingObserver) LeadRecorded(model.LeadRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records++
}

func (o *countingObserver) StepFailed(node model.Node, kind enrich.FailureKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures == nil {
		o.failures = make(map[model.Node]enrich.FailureKind)
	}
	o.failures[node] = kind
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) sink(ev model.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) ofType(t model.EventType) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last() model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) logs() []string {
	var out []string
	for _, ev := range r.ofType(model.EventLog) {
		out = append(out, ev.Message)
	}
	return out
}

func newTestStore(t *testing.T) *store.JSONStore {
	t.Helper()
	dir := t.TempDir()
	return store.OpenJSON(filepath.Join(dir, "history.json"), filepath.Join(dir, "results.json"))
}

func site(md string) enrich.Outcome[model.ScrapedSite] {
	return enrich.Outcome[model.ScrapedSite]{Value: model.ScrapedSite{MainContent: md}}
}

func qualified(name string) enrich.Outcome[model.BusinessProfile] {
	return enrich.Outcome[model.BusinessProfile]{Value: model.BusinessProfile{
		IsQualified:          true,
		CompanyName:          name,
		CoreBusiness:         "Solar installation",
		PainPoints:           []string{"manual quoting"},
		AutomationHypothesis: "Automate quote intake",
	}}
}

func person(name string) enrich.Outcome[model.DecisionMaker] {
	return enrich.Outcome[model.DecisionMaker]{Value: model.DecisionMaker{FullName: name}}
}

func email(subject string) enrich.Outcome[model.EmailDraft] {
	return enrich.Outcome[model.EmailDraft]{Value: model.EmailDraft{Subject: subject, Body: "Hi there"}}
}
