// Package campaign drives a lead-generation run: discovery, history dedup,
// sequential enrichment of each candidate and incremental persistence, with
// progress reported as a stream of events.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

const defaultDelay = time.Second

var (
	// ErrNoLeads is returned when discovery yields no candidates.
	ErrNoLeads = eris.New("campaign: no leads found")
	// ErrInvalidTarget is returned for a target count below one.
	ErrInvalidTarget = eris.New("campaign: target count must be at least 1")
)

// Discoverer finds candidate sites for a niche.
type Discoverer interface {
	FindCompanies(ctx context.Context, niche string, count int) []model.Candidate
}

// Enricher runs the four enrichment steps. *enrich.Enricher satisfies it.
type Enricher interface {
	Scrape(ctx context.Context, siteURL string) enrich.Outcome[model.ScrapedSite]
	Qualify(ctx context.Context, content, fallbackName string) enrich.Outcome[model.BusinessProfile]
	Identify(ctx context.Context, company, content string, siteSocials model.Socials) enrich.Outcome[model.DecisionMaker]
	Draft(ctx context.Context, in enrich.DraftRequest) enrich.Outcome[model.EmailDraft]
}

// Observer receives run counters. All methods must be safe to call from the
// runner goroutine.
type Observer interface {
	SiteScanned()
	LeadQualified()
	LeadRecorded(rec model.LeadRecord)
	StepFailed(node model.Node, kind enrich.FailureKind)
}

// Sink receives progress events in order.
type Sink func(model.Event)

// Runner processes candidates one at a time.
type Runner struct {
	discovery Discoverer
	history   store.HistoryStore
	results   store.ResultStore
	enricher  Enricher

	delay            time.Duration
	rememberRejected bool
	observer         Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause between processed candidates. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRememberRejected also adds unscrapable and disqualified sites to
// history, so later runs skip them.
func WithRememberRejected(on bool) Option {
	return func(r *Runner) { r.rememberRejected = on }
}

// WithObserver attaches run counters.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// New creates a Runner.
func New(discovery Discoverer, history store.HistoryStore, results store.ResultStore, enricher Enricher, opts ...Option) *Runner {
	r := &Runner{
		discovery: discovery,
		history:   history,
		results:   results,
		enricher:  enricher,
		delay:     defaultDelay,
		observer:  nopObserver{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	return r
}

// Run finds up to target leads for niche. Events go to sink, which may be
// nil. The returned records are the ones persisted by this run, in order.
// The stream always ends with an error event or the completion log line.
func (r *Runner) Run(ctx context.Context, niche string, target int, sink Sink) ([]model.LeadRecord, error) {
	emit := r.emitter(sink)
	if target < 1 {
		emit(model.Event{Type: model.EventError, Message: ErrInvalidTarget.Error()})
		return nil, ErrInvalidTarget
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("niche", niche), zap.Int("target", target))
	log.Info("campaign: starting")
	start := time.Now()

	emit(model.Event{Type: model.EventNodeActive, Node: model.NodeDiscovery})
	emit(logEvent("Scanning for %d targets in: %s...", target, niche))

	candidates := r.discovery.FindCompanies(ctx, niche, target)
	if len(candidates) == 0 {
		log.Warn("campaign: discovery returned nothing")
		emit(model.Event{Type: model.EventNodeError, Node: model.NodeDiscovery})
		emit(model.Event{Type: model.EventError, Message: model.MessageNoLeads})
		return nil, ErrNoLeads
	}
	emit(model.Event{Type: model.EventNodeDone, Node: model.NodeDiscovery})

	var recorded []model.LeadRecord
	processed := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return recorded, r.cancelled(emit, log, err, len(recorded))
		}
		if len(recorded) >= target {
			emit(logEvent("Target count reached. Stopping mission."))
			break
		}

		seen, err := r.history.Exists(ctx, c.URL)
		if err != nil {
			return recorded, r.fail(emit, log, eris.Wrapf(err, "campaign: history lookup %s", c.URL))
		}
		if seen {
			emit(logEvent("Skipping %s (in history)", c.URL))
			continue
		}

		if processed > 0 && !r.pause(ctx) {
			return recorded, r.cancelled(emit, log, ctx.Err(), len(recorded))
		}
		processed++

		rec, err := r.process(ctx, c, emit, log)
		if err != nil {
			return recorded, r.fail(emit, log, err)
		}
		if rec != nil {
			recorded = append(recorded, *rec)
		}
	}

	log.Info("campaign: complete",
		zap.Int("processed", processed),
		zap.Int("recorded", len(recorded)),
		zap.Duration("elapsed", time.Since(start)),
	)
	emit(logEvent(model.MessageComplete))
	return recorded, nil
}

// process walks one candidate through the stages. It returns the stored
// record, nil for an abandoned candidate, or a storage error. Panics are
// contained here so one bad candidate never ends the run.
func (r *Runner) process(ctx context.Context, c model.Candidate, emit Sink, runLog *zap.Logger) (rec *model.LeadRecord, err error) {
	log := runLog.With(zap.String("url", c.URL))
	node := model.NodeScrape
	defer func() {
		if p := recover(); p != nil {
			log.Error("campaign: candidate panicked", zap.Any("panic", p), zap.String("node", string(node)))
			emit(model.Event{Type: model.EventNodeError, Node: node})
			emit(logEvent("Error processing %s: %v", c.URL, p))
			rec, err = nil, nil
		}
	}()

	emit(logEvent("Processing: %s", c.URL))
	emit(model.Event{Type: model.EventNodeActive, Node: node})
	r.observer.SiteScanned()
	site := r.enricher.Scrape(ctx, c.URL)
	if site.Halted() {
		log.Info("campaign: scrape failed", zap.Error(site.Err))
		r.observer.StepFailed(node, site.Failure)
		emit(model.Event{Type: model.EventNodeError, Node: node})
		emit(logEvent("Scraping failed for %s", c.URL))
		return nil, r.reject(ctx, c)
	}
	emit(model.Event{Type: model.EventNodeDone, Node: node})

	node = model.NodeQualify
	emit(model.Event{Type: model.EventNodeActive, Node: node})
	profile := r.enricher.Qualify(ctx, site.Value.Combined(), c.Name)
	if profile.Halted() || !profile.Value.IsQualified {
		log.Info("campaign: rejected",
			zap.String("company", profile.Value.CompanyName),
			zap.String("reason", profile.Value.DisqualificationReason),
			zap.Stringer("failure", profile.Failure),
		)
		if profile.Recovered() {
			r.observer.StepFailed(node, profile.Failure)
		}
		emit(model.Event{Type: model.EventNodeError, Node: node})
		emit(logEvent("Rejected: %s", profile.Value.CompanyName))
		return nil, r.reject(ctx, c)
	}
	r.observer.LeadQualified()
	emit(logEvent("Qualified: %s", profile.Value.CompanyName))
	emit(model.Event{Type: model.EventNodeDone, Node: node})

	node = model.NodeIdentify
	emit(model.Event{Type: model.EventNodeActive, Node: node})
	dm := r.enricher.Identify(ctx, profile.Value.CompanyName, site.Value.Combined(), site.Value.FoundSocials)
	if dm.Recovered() {
		log.Warn("campaign: identify degraded", zap.Error(dm.Err))
		r.observer.StepFailed(node, dm.Failure)
	}
	emit(model.Event{Type: model.EventNodeDone, Node: node})

	node = model.NodeDraft
	emit(model.Event{Type: model.EventNodeActive, Node: node})
	draft := r.enricher.Draft(ctx, enrich.DraftRequest{
		Company:    profile.Value.CompanyName,
		Person:     dm.Value.FullName,
		Hypothesis: profile.Value.AutomationHypothesis,
		PainPoints: profile.Value.PainPoints,
		Signals:    enrich.DetectSignals(site.Value.MainContent),
	})
	if draft.Recovered() {
		log.Warn("campaign: draft failed, recording sentinel", zap.Error(draft.Err))
		r.observer.StepFailed(node, draft.Failure)
	}
	emit(model.Event{Type: model.EventNodeDone, Node: node})

	record := model.NewLeadRecord(c.URL, profile.Value, dm.Value, draft.Value)

	// A candidate that reached this point is stored even if the run was
	// cancelled meanwhile. The result is written before the history entry so
	// a failed save leaves the domain eligible for a later run.
	storeCtx := context.WithoutCancel(ctx)
	if err := r.results.Append(storeCtx, record); err != nil {
		return nil, eris.Wrapf(err, "campaign: save result %s", c.URL)
	}
	if err := r.history.Add(storeCtx, c.URL); err != nil {
		return nil, eris.Wrapf(err, "campaign: record history %s", c.URL)
	}
	r.observer.LeadRecorded(record)
	log.Info("campaign: lead recorded", zap.String("company", record.Company), zap.String("person", record.Person))
	emit(model.Event{Type: model.EventResult, Data: &record})
	return &record, nil
}

// reject records an abandoned candidate in history when configured to.
func (r *Runner) reject(ctx context.Context, c model.Candidate) error {
	if !r.rememberRejected {
		return nil
	}
	return eris.Wrapf(r.history.Add(context.WithoutCancel(ctx), c.URL), "campaign: record history %s", c.URL)
}

func (r *Runner) cancelled(emit Sink, log *zap.Logger, err error, recorded int) error {
	log.Info("campaign: cancelled", zap.Int("recorded", recorded))
	emit(model.Event{Type: model.EventError, Message: "Campaign cancelled."})
	return eris.Wrap(err, "campaign: cancelled")
}

func (r *Runner) fail(emit Sink, log *zap.Logger, err error) error {
	log.Error("campaign: aborted", zap.Error(err))
	emit(model.Event{Type: model.EventError, Message: err.Error()})
	return err
}

// pause waits out the inter-candidate delay. It returns false if ctx ended
// first.
func (r *Runner) pause(ctx context.Context) bool {
	if r.delay <= 0 {
		return true
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) emitter(sink Sink) Sink {
	return func(ev model.Event) {
		if sink != nil {
			sink(ev)
		}
	}
}

func logEvent(format string, args ...any) model.Event {
	return model.Event{Type: model.EventLog, Message: fmt.Sprintf(format, args...)}
}

type nopObserver struct{}

func (nopObserver) SiteScanned()                              {}
func (nopObserver) LeadQualified()                            {}
func (nopObserver) LeadRecorded(model.LeadRecord)             {}
func (nopObserver) StepFailed(model.Node, enrich.FailureKind) {}
