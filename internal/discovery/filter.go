package discovery

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/search"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Rejection reason codes.
const (
	ReasonInvalidURL      = "invalid_url"
	ReasonDomainBlacklist = "domain_blacklist"
	ReasonListicleTitle   = "listicle_title"
	ReasonPathBlacklist   = "path_blacklist"
	ReasonDuplicateDomain = "duplicate_domain"
)

// filterWorkers bounds the goroutines used to screen one result page.
const filterWorkers = 8

// digitSpaceRe matches titles like "10 solar installers in Miami".
var digitSpaceRe = regexp.MustCompile(`\d `)

// Filter screens search hits for directories, listicles and editorial
// pages.
type Filter struct {
	domains  []string
	paths    []string
	listicle []string
}

// NewFilter creates a Filter. Nil lists fall back to the built-in defaults;
// empty non-nil lists disable that check.
func NewFilter(domains, paths, listicle []string) *Filter {
	if domains == nil {
		domains = config.DefaultDomainBlacklist
	}
	if paths == nil {
		paths = config.DefaultPathBlacklist
	}
	if listicle == nil {
		listicle = config.DefaultListicleMarkers
	}
	return &Filter{
		domains:  lowerAll(domains),
		paths:    lowerAll(paths),
		listicle: lowerAll(listicle),
	}
}

// Reject reports whether a hit is not a company site, and why.
func (f *Filter) Reject(hit search.Result) (bool, string) {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(hit.URL)))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return true, ReasonInvalidURL
	}

	for _, d := range f.domains {
		if strings.Contains(u.Host, d) {
			return true, ReasonDomainBlacklist
		}
	}

	title := strings.ToLower(hit.Title)
	for _, m := range f.listicle {
		if strings.Contains(title, m) {
			return true, ReasonListicleTitle
		}
	}
	if digitSpaceRe.MatchString(title) {
		return true, ReasonListicleTitle
	}

	for _, p := range f.paths {
		if strings.Contains(u.Path, p) {
			return true, ReasonPathBlacklist
		}
	}
	return false, ""
}

type verdict struct {
	rejected bool
	reason   string
}

// Apply screens hits concurrently, then keeps the survivors in their
// original order with one candidate per domain. It returns the candidates
// and a count of rejections per reason.
func (f *Filter) Apply(ctx context.Context, hits []search.Result) ([]model.Candidate, map[string]int) {
	verdicts := make([]verdict, len(hits))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(filterWorkers)
	for i, h := range hits {
		g.Go(func() error {
			rejected, reason := f.Reject(h)
			verdicts[i] = verdict{rejected: rejected, reason: reason}
			return nil
		})
	}
	_ = g.Wait()

	rejected := make(map[string]int)
	seen := make(map[string]bool)
	var out []model.Candidate
	for i, h := range hits {
		if v := verdicts[i]; v.rejected {
			rejected[v.reason]++
			continue
		}
		key := store.DomainKey(h.URL)
		if seen[key] {
			rejected[ReasonDuplicateDomain]++
			continue
		}
		seen[key] = true

		name := strings.TrimSpace(h.Title)
		if name == "" {
			name = model.UnknownCompany
		}
		out = append(out, model.Candidate{
			Name: name,
			URL:  strings.ToLower(strings.TrimSpace(h.URL)),
		})
	}
	return out, rejected
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
