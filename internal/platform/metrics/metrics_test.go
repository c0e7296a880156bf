package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewFxMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFxMetrics(reg)

	m.IngestedRows.WithLabelValues("inserted").Add(3)
	m.IngestFailures.Inc()
	m.LatestRateAgeDays.WithLabelValues("USD").Set(2)

	require.Equal(t, 3.0, testutil.ToFloat64(m.IngestedRows.WithLabelValues("inserted")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.IngestFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	// a second set on a fresh registry must not collide
	require.NotPanics(t, func() { NewFxMetrics(prometheus.NewRegistry()) })
}
