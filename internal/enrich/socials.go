package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	xProfileRe        = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter\.com|x\.com)/[a-zA-Z0-9_]+`)
	linkedInProfileRe = regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/(?:company|in)/[a-zA-Z0-9_-]+`)
)

// xReservedPaths are X/Twitter paths of share buttons and site pages, never
// profiles.
var xReservedPaths = map[string]bool{
	"share":    true,
	"intent":   true,
	"home":     true,
	"hashtag":  true,
	"search":   true,
	"i":        true,
	"login":    true,
	"privacy":  true,
	"tos":      true,
	"explore":  true,
	"settings": true,
}

// ExtractSocials finds the first X and LinkedIn profile links in markdown.
func ExtractSocials(markdown string) model.Socials {
	var s model.Socials
	for _, m := range xProfileRe.FindAllString(markdown, -1) {
		if !xReservedPaths[strings.ToLower(lastSegment(m))] {
			s.XURL = m
			break
		}
	}
	if m := linkedInProfileRe.FindString(markdown); m != "" {
		s.LinkedInURL = m
	}
	return s
}

// NormalizeSocials keeps only values that look like real profile links,
// trimmed to the profile root.
func NormalizeSocials(s model.Socials) model.Socials {
	return ExtractSocials(s.XURL + "\n" + s.LinkedInURL)
}

// MergeSocials prefers the site's own links per field over search results.
func MergeSocials(footer, searched model.Socials) (model.Socials, model.IdentitySource) {
	merged := model.Socials{XURL: footer.XURL, LinkedInURL: footer.LinkedInURL}
	if merged.XURL == "" {
		merged.XURL = searched.XURL
	}
	if merged.LinkedInURL == "" {
		merged.LinkedInURL = searched.LinkedInURL
	}
	if footer.Any() {
		return merged, model.SourceFooter
	}
	return merged, model.SourceSearch
}

func lastSegment(u string) string {
	p, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.Trim(p.Path, "/")
}
