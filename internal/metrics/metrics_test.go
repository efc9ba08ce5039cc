package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/benchsim/cocoro/internal/metrics"
)

func TestCountersIncrementAndScrape(t *testing.T) {
	r := metrics.New()
	r.TasksSpawned.Inc()
	r.TasksSpawned.Inc()
	r.TasksCompleted.Inc()
	r.ReadyQueueLen.Set(3)
	r.TestsPassed.Inc()
	r.TestsFailed.Inc()
	r.WritesFlushed.Add(5)

	require.Equal(t, float64(2), testutil.ToFloat64(r.TasksSpawned))
	require.Equal(t, float64(1), testutil.ToFloat64(r.TasksCompleted))
	require.Equal(t, float64(3), testutil.ToFloat64(r.ReadyQueueLen))
	require.Equal(t, float64(5), testutil.ToFloat64(r.WritesFlushed))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "cocoro_tasks_spawned_total")
}
