package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
)

const (
	localMaxBody  = 2 << 20
	localMaxLinks = 200
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// LocalScraper fetches HTML via net/http, detects blocks, extracts the
// readable article text and renders every anchor as a markdown link. Free,
// no API calls.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper. A nil client gets sensible
// defaults.
func NewLocalScraper(client *http.Client) *LocalScraper {
	if client == nil {
		client = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return &LocalScraper{client: client}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL and converts it to markdown.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, localMaxBody))
	if err != nil {
		return nil, eris.Wrap(err, "local: read body")
	}

	if err := checkBlocked(targetURL, resp, body); err != nil {
		return nil, eris.Wrap(err, "local")
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local: status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) < 100 {
		return nil, eris.New("local: empty page")
	}

	base := resp.Request.URL
	if base == nil {
		if base, err = url.Parse(targetURL); err != nil {
			return nil, eris.Wrap(err, "local: parse url")
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "local: parse html")
	}

	title := collapseSpace(doc.Find("title").First().Text())
	links := collectLinks(doc, base)
	text := articleText(body, base)
	if text == "" {
		text = bodyText(doc)
	}
	if text == "" && len(links) == 0 {
		return nil, eris.New("local: no readable content")
	}

	return &Result{
		Page: Page{
			URL:        base.String(),
			Title:      title,
			Markdown:   renderMarkdown(title, text, links),
			StatusCode: resp.StatusCode,
		},
		Source: "local",
	}, nil
}

type link struct {
	text string
	href string
}

// collectLinks returns the page's anchors in document order, resolved to
// absolute http(s) URLs and deduplicated by target.
func collectLinks(doc *goquery.Document, base *url.URL) []link {
	var out []link
	seen := make(map[string]bool)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return true
		}
		resolved.Fragment = ""
		abs := resolved.String()
		if seen[abs] {
			return true
		}
		seen[abs] = true

		text := collapseSpace(s.Text())
		if text == "" {
			text = collapseSpace(s.AttrOr("aria-label", s.AttrOr("title", "")))
		}
		text = strings.NewReplacer("[", "", "]", "").Replace(text)
		out = append(out, link{text: text, href: abs})
		return len(out) < localMaxLinks
	})
	return out
}

// articleText extracts the main readable text. Readability failures are
// not fatal; the caller falls back to the raw body text.
func articleText(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	return tidyText(article.TextContent)
}

func bodyText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, svg").Remove()
	return tidyText(doc.Find("body").Text())
}

func renderMarkdown(title, text string, links []link) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	if text != "" {
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	for _, l := range links {
		fmt.Fprintf(&b, "- [%s](%s)\n", l.text, l.href)
	}
	return strings.TrimSpace(b.String())
}

var (
	spaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)
	nlRe    = regexp.MustCompile(`\n\s*\n(\s*\n)+`)
)

// tidyText collapses runs of spaces and blank lines.
func tidyText(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = nlRe.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
