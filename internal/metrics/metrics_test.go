// ABOUTME: Tests for the Prometheus store collector and package counter wiring.
// ABOUTME: Uses a pedantic registry to catch descriptor mistakes at test time.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianluft/threadloaf-sub002/internal/store"
)

func TestStoreCollector_EmitsAllSeries(t *testing.T) {
	s := store.New()
	c := NewStoreCollector(s)

	count := testutil.CollectAndCount(c)
	assert.Equal(t, 5, count)
}

func TestStoreCollector_TracksStoreState(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := store.New(store.WithClock(func() time.Time { return base }))

	s.AddMessage("c1", store.StoredMessage{ID: "m1", Timestamp: base.UnixMilli()})
	s.AddMessage("c1", store.StoredMessage{ID: "m2", Timestamp: base.UnixMilli()})
	s.AddMessage("c2", store.StoredMessage{ID: "m3", Timestamp: base.UnixMilli()})
	s.AddThread(store.ThreadMeta{ID: "t1", CreatedAt: base.UnixMilli()})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewStoreCollector(s)))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, float64(2), values["threadloaf_store_channels"])
	assert.Equal(t, float64(3), values["threadloaf_store_messages"])
	assert.Equal(t, float64(1), values["threadloaf_store_threads"])
	assert.Equal(t, float64(0), values["threadloaf_store_expired_messages_total"])
}

func TestPackageCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(MessagesObserved)
	MessagesObserved.Inc()
	MessagesObserved.Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(MessagesObserved))
}
