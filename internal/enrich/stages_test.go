package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/llm"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/search"
)

const qualifiedJSON = `{"is_qualified_business": true, "company_name": "Acme Solar", "core_business": "Rooftop solar installs",
"operational_pain_points": ["Manual CRM entry", " "], "automation_hypothesis": "Automate form-to-CRM handoff."}`

func TestQualify_Qualified(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("qualify")).Return("```json\n"+qualifiedJSON+"\n```", nil)

	out := newTestEnricher(nil, nil, c).Qualify(context.Background(), "Contact us for a quote", "acme.com")
	require.Equal(t, FailureNone, out.Failure)
	assert.True(t, out.Value.IsQualified)
	assert.Equal(t, "Acme Solar", out.Value.CompanyName)
	assert.Equal(t, []string{"Manual CRM entry"}, out.Value.PainPoints)
	assert.Equal(t, "Automate form-to-CRM handoff.", out.Value.AutomationHypothesis)

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.True(t, req.JSON)
	assert.Contains(t, req.System, string(SignalContactForm))
}

func TestQualify_TruncatesContent(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("qualify")).Return(qualifiedJSON, nil)

	long := strings.Repeat("a", 10000)
	newTestEnricher(nil, nil, c, WithQualifyLimit(6000)).Qualify(context.Background(), long, "x")

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Len(t, req.User, 6000)
}

func TestQualify_DisqualifiedHalts(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("qualify")).
		Return(`{"is_qualified_business": false, "reason_for_disqualification": "directory", "company_name": "Best Solar List"}`, nil)

	out := newTestEnricher(nil, nil, c).Qualify(context.Background(), "content", "fallback")
	assert.True(t, out.Halted())
	assert.False(t, out.Value.IsQualified)
	assert.Equal(t, "directory", out.Value.DisqualificationReason)
}

func TestQualify_BackendFailureRecovers(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("qualify")).Return("", errors.New("connection refused"))

	out := newTestEnricher(nil, nil, c).Qualify(context.Background(), "content", "Sunny Co")
	assert.True(t, out.Recovered())
	assert.False(t, out.Value.IsQualified)
	assert.Equal(t, "Sunny Co", out.Value.CompanyName)
	assert.Contains(t, out.Value.DisqualificationReason, "connection refused")
}

func TestQualify_ParseFailureRecovers(t *testing.T) {
	tests := []string{"I think it qualifies!", `{"company_name": "Acme"}`}
	for _, reply := range tests {
		c := &mockCompleter{}
		c.On("Complete", mock.Anything, stage("qualify")).Return(reply, nil)

		out := newTestEnricher(nil, nil, c).Qualify(context.Background(), "content", "fallback")
		assert.True(t, out.Recovered(), reply)
		assert.False(t, out.Value.IsQualified)
		assert.Equal(t, "fallback", out.Value.CompanyName)
	}
}

func TestQualify_BlankNameFallsBack(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("qualify")).Return(`{"is_qualified_business": true, "company_name": "  "}`, nil)

	out := newTestEnricher(nil, nil, c).Qualify(context.Background(), "content", "sunny.com")
	assert.Equal(t, "sunny.com", out.Value.CompanyName)
	assert.NotNil(t, out.Value.PainPoints)
}

func TestIdentityQuery(t *testing.T) {
	assert.Equal(t, `site:x.com "Jane Doe" Acme`, IdentityQuery("Jane Doe", "Acme"))
	assert.Equal(t, "site:x.com Acme official profile", IdentityQuery("Unknown", "Acme"))
	assert.Equal(t, "site:x.com Acme official profile", IdentityQuery("", "Acme"))
}

func TestIdentify_FooterOverridesSearch(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, userContains("find the founder")).Return(`{"name": "Jane Doe"}`, nil)
	c.On("Complete", mock.Anything, userContains("search results")).
		Return(`{"x_url": "https://x.com/searched", "linkedin_url": "https://linkedin.com/in/janedoe"}`, nil)

	s := &mockSearcher{}
	s.On("Search", mock.Anything, `site:x.com "Jane Doe" Acme Solar`, 3).
		Return([]search.Result{{URL: "https://x.com/searched", Snippet: "Jane Doe (@searched)"}}, nil)

	footer := model.Socials{XURL: "https://x.com/acmefooter"}
	out := newTestEnricher(nil, s, c).Identify(context.Background(), "Acme Solar", "About Jane", footer)
	require.Equal(t, FailureNone, out.Failure)
	assert.Equal(t, model.DecisionMaker{
		FullName:    "Jane Doe",
		XURL:        "https://x.com/acmefooter",
		LinkedInURL: "https://linkedin.com/in/janedoe",
		Source:      model.SourceFooter,
	}, out.Value)
	s.AssertExpectations(t)
}

func TestIdentify_UnknownPersonUsesCompanyQuery(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, userContains("find the founder")).Return(`{"name": "Unknown"}`, nil)
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "site:x.com Acme official profile", 3).Return([]search.Result{}, nil)

	out := newTestEnricher(nil, s, c).Identify(context.Background(), "Acme", "text", model.Socials{})
	assert.Equal(t, FailureNone, out.Failure)
	assert.Equal(t, model.UnknownPerson, out.Value.FullName)
	assert.Equal(t, model.SourceSearch, out.Value.Source)
	// no hits, no second LLM call
	c.AssertNumberOfCalls(t, "Complete", 1)
}

func TestIdentify_TotalFailureDegrades(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("llm down"))
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("search down"))

	footer := model.Socials{XURL: "https://x.com/acme", LinkedInURL: "https://linkedin.com/company/acme"}
	out := newTestEnricher(nil, s, c).Identify(context.Background(), "Acme", "text", footer)
	assert.True(t, out.Recovered())
	assert.False(t, out.Halted())
	assert.Equal(t, model.DecisionMaker{
		FullName:    model.UnknownPerson,
		XURL:        footer.XURL,
		LinkedInURL: footer.LinkedInURL,
		Source:      model.SourceFooter,
	}, out.Value)
	assert.ErrorContains(t, out.Err, "search down")
}

func TestIdentify_DropsDeadSearchLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &mockCompleter{}
	c.On("Complete", mock.Anything, userContains("find the founder")).Return(`{"name": "Jane"}`, nil)
	c.On("Complete", mock.Anything, userContains("search results")).Return(`{"x_url": "https://x.com/gone"}`, nil)
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, 3).Return([]search.Result{{URL: "https://x.com/gone"}}, nil)

	v := NewLinkValidatorWithClient(rewriteClient(srv))
	out := newTestEnricher(nil, s, c, WithLinkValidator(v)).Identify(context.Background(), "Acme", "text", model.Socials{})
	assert.Empty(t, out.Value.XURL)
}

func TestDraft_Success(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("draft")).Return(`{"subject": "idea for acme", "body": "Hi Jane,\n..."}`, nil)

	out := newTestEnricher(nil, nil, c, WithSender("Ops Team"), WithDraftTemperature(0.6)).Draft(context.Background(), DraftRequest{
		Company:    "Acme",
		Person:     "Jane",
		Hypothesis: "h",
		PainPoints: []string{"manual CRM entry", "scheduling"},
		Signals:    []Signal{SignalHiring},
	})
	require.Equal(t, FailureNone, out.Failure)
	assert.Equal(t, model.EmailDraft{Subject: "idea for acme", Body: "Hi Jane,\n..."}, out.Value)

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Contains(t, req.User, "Hi Jane,")
	assert.Contains(t, req.User, "manual CRM entry, scheduling")
	assert.Contains(t, req.User, "Ops Team")
	assert.Contains(t, req.User, string(SignalHiring))
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.6, *req.Temperature, 1e-9)
}

func TestDraft_UnknownPersonGreetsThere(t *testing.T) {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, stage("draft")).Return(`{"subject": "s", "body": "b"}`, nil)

	newTestEnricher(nil, nil, c).Draft(context.Background(), DraftRequest{Company: "Acme", Person: "Unknown"})
	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Contains(t, req.User, "Hi there,")
}

func TestDraft_FailureYieldsSentinel(t *testing.T) {
	tests := []struct {
		reply string
		err   error
	}{
		{"", errors.New("rate limited")},
		{"not json", nil},
		{`{"subject": "only subject"}`, nil},
	}
	for _, tt := range tests {
		c := &mockCompleter{}
		c.On("Complete", mock.Anything, stage("draft")).Return(tt.reply, tt.err)

		out := newTestEnricher(nil, nil, c).Draft(context.Background(), DraftRequest{Company: "Acme"})
		assert.True(t, out.Recovered())
		assert.True(t, out.Value.Failed())
		assert.NotEmpty(t, out.Value.Body)
	}
}

func TestNew_WriterDefaultsToAnalyst(t *testing.T) {
	c := &mockCompleter{}
	e := New(nil, nil, llm.Pair{Analyst: c})
	assert.Same(t, c, e.writer)
}

func TestLinkValidator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/suspended":
			w.Write([]byte("<h1>This account doesn't exist</h1>")) //nolint:errcheck
		default:
			w.Write([]byte("<h1>Jane Doe</h1>")) //nolint:errcheck
		}
	}))
	defer srv.Close()

	v := NewLinkValidatorWithClient(srv.Client())
	ctx := context.Background()
	assert.True(t, v.Alive(ctx, srv.URL+"/jane"))
	assert.False(t, v.Alive(ctx, srv.URL+"/gone"))
	assert.False(t, v.Alive(ctx, srv.URL+"/suspended"))
	assert.False(t, v.Alive(ctx, "x.com/jane"))

	// unreachable host: inconclusive, keep the link
	dead := NewLinkValidator(50 * time.Millisecond)
	assert.True(t, dead.Alive(ctx, "http://127.0.0.1:1/jane"))
}

// rewriteClient sends every request to srv regardless of host.
func rewriteClient(srv *httptest.Server) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r2 := r.Clone(r.Context())
		r2.URL.Scheme = "http"
		r2.URL.Host = strings.TrimPrefix(srv.URL, "http://")
		return http.DefaultTransport.RoundTrip(r2)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
