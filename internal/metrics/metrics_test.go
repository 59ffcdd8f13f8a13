package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRecordsThroughRegistry(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	set := New(registry)

	set.RecordEmbed("success")
	set.RecordEmbed("success")
	set.RecordEmbed("quota_rejected")
	set.RecordCacheHit(true)
	set.RecordCacheHit(false)
	set.RecordMatch(true)
	set.RecordExhausted()
	set.SetIndexedRecords(42)
	set.SetEligibleCredentials(3)

	assert.InDelta(t, 2, testutil.ToFloat64(set.EmbedCalls.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(set.EmbedCalls.WithLabelValues("quota_rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(set.CacheHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(set.CacheMisses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(set.Matches), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(set.PoolExhausted), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(set.IndexedRecords), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(set.EligibleCredits), 0)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilSetIsSafe(t *testing.T) {
	t.Parallel()

	var set *Set
	set.RecordEmbed("success")
	set.RecordCacheHit(true)
	set.RecordMatch(false)
	set.RecordExhausted()
	set.SetIndexedRecords(1)
	set.SetEligibleCredentials(1)
}
