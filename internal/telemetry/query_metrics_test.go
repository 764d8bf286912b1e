package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentQueries_KeepsNewest(t *testing.T) {
	r := &recentQueries{n: 3}

	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		r.add(q)
	}

	assert.Equal(t, []string{"q3", "q4", "q5"}, r.list())
}

func TestRecentQueries_EmptyListIsNotNil(t *testing.T) {
	r := &recentQueries{n: 3}

	assert.NotNil(t, r.list())
	assert.Empty(t, r.list())
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    LatencyBucket
	}{
		{0, BucketP10},
		{9 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{75 * time.Millisecond, BucketP100},
		{499 * time.Millisecond, BucketP500},
		{500 * time.Millisecond, BucketP1000},
		{3 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.latency), tt.latency.String())
	}
}

func TestClassifyQuery(t *testing.T) {
	assert.Equal(t, QueryTypeSingle, ClassifyQuery("salmon"))
	assert.Equal(t, QueryTypeSingle, ClassifyQuery("  salmon  "))
	assert.Equal(t, QueryTypeMulti, ClassifyQuery("grilled salmon"))
}

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Grilled Salmon", []string{"grilled", "salmon"}},
		{"a to the", []string{"the"}},
		{"søk på øl", []string{"søk"}},
		{"blåbær", []string{"blåbær"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractTerms(tt.query), tt.query)
	}
}

// =============================================================================
// QueryMetrics Tests
// =============================================================================

func TestQueryMetrics_Record(t *testing.T) {
	// Given: an in-memory collector
	m := NewQueryMetrics(nil)
	defer func() { _ = m.Close() }()

	// When: recording a mix of searches
	m.Record(QueryEvent{Query: "salmon", ResultCount: 2, Latency: 5 * time.Millisecond})
	m.Record(QueryEvent{Query: "grilled salmon", ResultCount: 1, Latency: 20 * time.Millisecond, Cached: true})
	m.Record(QueryEvent{Query: "tofu", ResultCount: 0, Latency: 700 * time.Millisecond})
	m.Record(QueryEvent{Query: "   "})

	// Then: the snapshot reflects them
	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.CachedCount)
	assert.Equal(t, int64(2), snap.QueryTypeCounts[QueryTypeSingle])
	assert.Equal(t, int64(1), snap.QueryTypeCounts[QueryTypeMulti])
	assert.Equal(t, []string{"tofu"}, snap.ZeroResultQueries)
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP50])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP1000])
	require.NotEmpty(t, snap.TopTerms)
	assert.Equal(t, TermCount{Term: "salmon", Count: 2}, snap.TopTerms[0])
	assert.InDelta(t, 33.33, snap.ZeroResultPercentage(), 0.01)
}

func TestQueryMetrics_TopTermsEvictLeastRecent(t *testing.T) {
	m := NewQueryMetricsWithConfig(nil, Config{TopTermsCapacity: 2})
	defer func() { _ = m.Close() }()

	m.Record(QueryEvent{Query: "salmon", ResultCount: 1})
	m.Record(QueryEvent{Query: "pasta", ResultCount: 1})
	m.Record(QueryEvent{Query: "curry", ResultCount: 1})

	var terms []string
	for _, tc := range m.Snapshot().TopTerms {
		terms = append(terms, tc.Term)
	}
	assert.ElementsMatch(t, []string{"pasta", "curry"}, terms)
}

func TestQueryMetrics_Concurrent(t *testing.T) {
	m := NewQueryMetrics(nil)
	defer func() { _ = m.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Record(QueryEvent{Query: "salmon", ResultCount: 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.Snapshot().TotalQueries)
}

func TestQueryMetrics_RecordAfterCloseIsIgnored(t *testing.T) {
	m := NewQueryMetrics(nil)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	m.Record(QueryEvent{Query: "salmon"})

	assert.Zero(t, m.Snapshot().TotalQueries)
}

func TestSnapshot_ZeroResultPercentage_NoQueries(t *testing.T) {
	assert.Zero(t, (&Snapshot{}).ZeroResultPercentage())
}
