package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoforge/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.ObserveAction("Artist", "create", metrics.OutcomeOK, time.Now())
	m.ObserveAction("Artist", "create", metrics.OutcomeOK, time.Now())
	m.ObserveReconcile("Artist", "albums", 2, 1)
	m.IncrementStale("Artist", "albums")

	require.InDelta(t, 2, testutil.ToFloat64(m.Actions.WithLabelValues("Artist", "create", metrics.OutcomeOK)), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.LinksAdded.WithLabelValues("Artist", "albums")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.LinksRemoved.WithLabelValues("Artist", "albums")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.StaleReferences.WithLabelValues("Artist", "albums")), 0)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveAction("Artist", "show", metrics.OutcomeError, time.Now())
		m.ObserveReconcile("Artist", "albums", 1, 1)
		m.IncrementStale("Artist", "albums")
	})
}
