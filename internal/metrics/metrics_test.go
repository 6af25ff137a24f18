package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/engine/crawler"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder("starbucks")

	r.ObserveQuery(crawler.OutcomeOK, 120*time.Millisecond)
	r.ObserveQuery(crawler.OutcomeOK, 80*time.Millisecond)
	r.ObserveQuery(crawler.OutcomeTransport, time.Second)
	r.ObserveAccepted(7)
	r.ObserveAccepted(3)
	r.ObserveFrontier(42)
	r.ObserveFrontier(12)

	assert.InDelta(t, 2, testutil.ToFloat64(r.queries.WithLabelValues("starbucks", crawler.OutcomeOK)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.queries.WithLabelValues("starbucks", crawler.OutcomeTransport)), 1e-9)
	assert.InDelta(t, 10, testutil.ToFloat64(r.accepted.WithLabelValues("starbucks")), 1e-9)
	assert.InDelta(t, 12, testutil.ToFloat64(r.frontier.WithLabelValues("starbucks")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder("raisingcanes")
	r.ObserveQuery(crawler.OutcomeRateLimited, 10*time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `storetap_oracle_queries_total{brand="raisingcanes",outcome="rate_limited"} 1`), text)
	assert.Contains(t, text, "storetap_oracle_query_duration_seconds_bucket")
}

func TestRecorder_EmptyRegistry(t *testing.T) {
	r := NewRecorder("test")

	n, err := testutil.GatherAndCount(r.Registry())
	require.NoError(t, err)
	assert.Zero(t, n)
}
