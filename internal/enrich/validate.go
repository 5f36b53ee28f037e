package enrich

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const validateUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

// LinkValidator pings profile links to weed out dead accounts.
type LinkValidator struct {
	client *http.Client
}

// NewLinkValidator creates a validator whose pings time out after timeout.
func NewLinkValidator(timeout time.Duration) *LinkValidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LinkValidator{client: &http.Client{Timeout: timeout}}
}

// NewLinkValidatorWithClient creates a validator on a custom client.
func NewLinkValidatorWithClient(c *http.Client) *LinkValidator {
	return &LinkValidator{client: c}
}

// Alive reports whether link still points at a live profile. A 404 or a
// "doesn't exist" page is dead; network errors are inconclusive and keep
// the link.
func (v *LinkValidator) Alive(ctx context.Context, link string) bool {
	if !strings.HasPrefix(strings.ToLower(link), "http") {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", validateUserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		zap.L().Debug("enrich: link check inconclusive", zap.String("url", link), zap.Error(err))
		return true
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return false
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256<<10))
	lower := strings.ToLower(string(body))
	return !strings.Contains(lower, "account doesn't exist") && !strings.Contains(lower, "account doesn’t exist")
}
