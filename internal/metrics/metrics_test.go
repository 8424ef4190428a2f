package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polycheck/internal/model"
)

func TestMetrics_Counters(t *testing.T) {
	m := Nop()

	m.ObserveResolution(model.SourceStaticTable)
	m.ObserveResolution(model.SourceStaticTable)
	m.ObserveResolution(model.SourceCache)
	m.ObserveLiveFetch("found", 120*time.Millisecond)
	m.IncrementPromotions()
	m.IncrementMisses(model.MissNotFound)
	m.IncrementRejections("wikipedia")
	m.IncrementRetries("wikipedia")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("static-table")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveFetches.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryPromotions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissesRecorded.WithLabelValues("not-found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LimiterRejections.WithLabelValues("wikipedia")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("wikipedia")))
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	// A second registration on the same registry collides; separate
	// registries do not.
	assert.Panics(t, func() { New(reg) })
	require.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
