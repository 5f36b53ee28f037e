package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

func TestMetrics_CampaignCounters(t *testing.T) {
	m := New(nil)
	m.SiteScanned()
	m.SiteScanned()
	m.LeadQualified()
	m.LeadRecorded(model.LeadRecord{Company: "A"})
	m.LeadRecorded(model.LeadRecord{Company: "B", XURL: "https://x.com/b"})
	m.StepFailed(model.NodeScrape, enrich.FailureHalt)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SitesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsQualified))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SocialsFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepFailures.WithLabelValues("2", "halt")))
}

func TestMetrics_ObserveLLM(t *testing.T) {
	m := New(nil)
	m.ObserveLLM("qualify", 120*time.Millisecond, nil)
	m.ObserveLLM("qualify", time.Second, errors.New("429"))
	m.ObserveLLM("", time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(m.LLMDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMErrors.WithLabelValues("qualify")))
}

func TestMetrics_BreakerStates(t *testing.T) {
	breakers := resilience.NewBreakers(1, time.Hour)
	_, _ = resilience.Guard(context.Background(), breakers.For("scrape:jina"), func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	breakers.For("search:searxng")

	m := New(breakers)
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `outreach_breaker_state{breaker="scrape:jina"} 1`)
	assert.Contains(t, string(body), `outreach_breaker_state{breaker="search:searxng"} 0`)
	assert.Contains(t, string(body), "outreach_sites_scanned_total 0")
}
