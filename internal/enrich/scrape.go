package enrich

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrEmptyContent is the halt reason when a site yields no readable text.
var ErrEmptyContent = eris.New("enrich: empty site content")

var aboutLinkRe = regexp.MustCompile(`(?i)\[([^\]]*?(?:About|Team|Leadership|Who we are|Staff)[^\]]*?)\]\((.*?)\)`)

// FindAboutLink returns the absolute URL of the first markdown link whose
// anchor names an about, team or leadership page. Relative targets must be
// root-relative ("/about"); anything else that is not http(s) is ignored.
func FindAboutLink(markdown, pageURL string) string {
	m := aboutLinkRe.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	target := strings.TrimSpace(m[2])
	if i := strings.IndexAny(target, " \t"); i >= 0 {
		// drop a markdown link title: (/about "About us")
		target = target[:i]
	}

	switch {
	case strings.HasPrefix(target, "//"):
		return ""
	case strings.HasPrefix(target, "/"):
		base, err := url.Parse(pageURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return ""
		}
		return base.Scheme + "://" + base.Host + target
	case strings.HasPrefix(strings.ToLower(target), "http"):
		return target
	default:
		return ""
	}
}

// Scrape fetches the candidate's site and, best effort, its about page.
// It halts when the main page cannot be fetched or is empty.
func (e *Enricher) Scrape(ctx context.Context, siteURL string) Outcome[model.ScrapedSite] {
	log := zap.L().With(zap.String("url", siteURL), zap.String("stage", "scrape"))

	res, err := e.pages.Scrape(ctx, siteURL)
	if err != nil {
		return halted(model.ScrapedSite{}, eris.Wrapf(err, "enrich: scrape %s", siteURL))
	}
	main := ""
	if res != nil {
		main = res.Page.Markdown
	}
	if strings.TrimSpace(main) == "" {
		return halted(model.ScrapedSite{}, eris.Wrapf(ErrEmptyContent, "enrich: scrape %s", siteURL))
	}

	site := model.ScrapedSite{MainContent: main}
	if about := FindAboutLink(main, siteURL); about != "" && !sameURL(about, siteURL) {
		log.Debug("enrich: fetching about page", zap.String("about_url", about))
		sec, err := e.pages.Scrape(ctx, about)
		switch {
		case err != nil:
			log.Debug("enrich: about page failed", zap.String("about_url", about), zap.Error(err))
		case sec != nil:
			site.SecondaryURL = about
			site.SecondaryContent = sec.Page.Markdown
		}
	}

	site.FoundSocials = ExtractSocials(site.Combined())
	return succeeded(site)
}

func sameURL(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "/")
	}
	return norm(a) == norm(b)
}
