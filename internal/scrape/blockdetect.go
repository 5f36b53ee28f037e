package scrape

import (
	"fmt"
	"net/http"
	"strings"
)

// BlockKind names the anti-bot measure that kept a page from being read.
type BlockKind string

const (
	BlockCloudflare BlockKind = "cloudflare"
	BlockCaptcha    BlockKind = "captcha"
	BlockJSShell    BlockKind = "js_shell"
	BlockRateLimit  BlockKind = "rate_limit"
)

// BlockedError is returned when a site answered with a challenge page
// instead of content. The chain moves on to the next backend, which may
// render JavaScript or route through a different network.
type BlockedError struct {
	URL    string
	Kind   BlockKind
	Status int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked (%s, status %d): %s", e.Kind, e.Status, e.URL)
}

// bodyMarker flags a page whose lower-cased body contains every needle.
// maxLen > 0 limits the check to small pages, where the marker is the page
// rather than a widget on an otherwise readable site.
type bodyMarker struct {
	kind    BlockKind
	maxLen  int
	needles []string
}

var bodyMarkers = []bodyMarker{
	{kind: BlockCloudflare, needles: []string{"checking your browser"}},
	{kind: BlockCloudflare, needles: []string{"cf-browser-verification"}},
	{kind: BlockCloudflare, needles: []string{"cloudflare", "challenge"}},
	{kind: BlockCaptcha, maxLen: 20000, needles: []string{"captcha"}},
	{kind: BlockJSShell, maxLen: 2000, needles: []string{"<noscript", "javascript"}},
	{kind: BlockJSShell, maxLen: 2000, needles: []string{`meta http-equiv="refresh"`}},
}

// checkBlocked inspects a fetched page and returns a *BlockedError when it
// is a challenge, rate-limit or JavaScript-only shell. It returns nil for
// ordinary pages, including error pages, which the caller handles by status.
func checkBlocked(targetURL string, resp *http.Response, body []byte) error {
	if resp == nil {
		return nil
	}
	blocked := func(kind BlockKind) error {
		return &BlockedError{URL: targetURL, Kind: kind, Status: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return blocked(BlockRateLimit)
	}
	if (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable) && behindCloudflare(resp.Header) {
		return blocked(BlockCloudflare)
	}

	lower := strings.ToLower(string(body))
	for _, m := range bodyMarkers {
		if m.maxLen > 0 && len(body) >= m.maxLen {
			continue
		}
		if containsAll(lower, m.needles) {
			return blocked(m.kind)
		}
	}
	return nil
}

func behindCloudflare(h http.Header) bool {
	return h.Get("cf-ray") != "" || h.Get("cf-cache-status") != "" || strings.EqualFold(h.Get("server"), "cloudflare")
}

func containsAll(s string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(s, n) {
			return false
		}
	}
	return true
}
