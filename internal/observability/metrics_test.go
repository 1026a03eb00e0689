package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Unclassified.Add(8)

	assert.InDelta(t, 8, gatherCounter(t, a, "noonmap_unclassified_cells_total"), 0)
	assert.InDelta(t, 0, gatherCounter(t, b, "noonmap_unclassified_cells_total"), 0)
}

func TestMetrics_LabelledCounters(t *testing.T) {
	m := NewMetricsForTesting()

	m.ArtifactCache.WithLabelValues("noonDiff.bin", "hit").Inc()
	m.ArtifactCache.WithLabelValues("noonDiff.bin", "hit").Inc()
	m.ArtifactCache.WithLabelValues("elev.bin", "miss").Inc()

	assert.InDelta(t, 3, gatherCounter(t, m, "noonmap_artifact_cache_total"), 0)
}

// gatherCounter registers m on a fresh registry and sums every sample of
// the named counter family.
func gatherCounter(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}
	families, err := reg.Gather()
	require.NoError(t, err)

	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			sum += metric.GetCounter().GetValue()
		}
	}
	return sum
}
