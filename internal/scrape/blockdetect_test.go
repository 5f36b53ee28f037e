package scrape

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBlocked(t *testing.T) {
	readable := "<html><body>Sunny Solar installs residential panels across Miami-Dade.</body></html>"
	bigWithWidget := "<html><body>" + strings.Repeat("<p>Residential solar installs across Miami-Dade.</p>", 500) +
		`<script src="https://www.google.com/recaptcha/api.js"></script></body></html>`

	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockKind
	}{
		{name: "cloudflare ray header", status: 403, header: http.Header{"Cf-Ray": {"abc123"}}, want: BlockCloudflare},
		{name: "cloudflare server header", status: 503, header: http.Header{"Server": {"cloudflare"}}, want: BlockCloudflare},
		{name: "browser check page", status: 200, body: "<html>Checking your browser before accessing</html>", want: BlockCloudflare},
		{name: "captcha page", status: 200, body: "<html><body>Please complete the reCAPTCHA to continue</body></html>", want: BlockCaptcha},
		{name: "noscript shell", status: 200, body: "<html><noscript>Enable JavaScript to continue</noscript></html>", want: BlockJSShell},
		{name: "meta refresh shell", status: 200, body: `<html><meta http-equiv="refresh" content="0;url=/x"></html>`, want: BlockJSShell},
		{name: "rate limited", status: 429, want: BlockRateLimit},
		{name: "readable page", status: 200, body: readable},
		{name: "captcha widget on large page", status: 200, body: bigWithWidget},
		{name: "plain 403 without cloudflare", status: 403, body: readable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			err := checkBlocked("https://sunnysolar.com", &http.Response{StatusCode: tt.status, Header: header}, []byte(tt.body))
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var be *BlockedError
			require.True(t, errors.As(err, &be), "expected BlockedError, got %v", err)
			assert.Equal(t, tt.want, be.Kind)
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, "https://sunnysolar.com", be.URL)
		})
	}
}

func TestCheckBlocked_NilResponse(t *testing.T) {
	assert.NoError(t, checkBlocked("https://sunnysolar.com", nil, nil))
}
