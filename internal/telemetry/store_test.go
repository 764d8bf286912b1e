package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "stats", "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func today() string {
	return time.Now().Format(time.DateOnly)
}

func TestSQLiteStore_SaveDaily_Accumulates(t *testing.T) {
	// Given: a fresh store
	s := openTestStore(t)

	// When: saving two batches for the same day
	d := Daily{
		QueryTypes: map[QueryType]int64{QueryTypeSingle: 3, QueryTypeMulti: 1},
		Latencies:  map[LatencyBucket]int64{BucketP10: 4},
		Total:      4,
		ZeroResult: 1,
		Cached:     2,
	}
	require.NoError(t, s.SaveDaily("2026-10-01", d))
	require.NoError(t, s.SaveDaily("2026-10-01", d))

	// Then: the report sums them
	snap, err := s.Report("2026-10-01", "2026-10-01", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(8), snap.TotalQueries)
	assert.Equal(t, int64(2), snap.ZeroResultCount)
	assert.Equal(t, int64(4), snap.CachedCount)
	assert.Equal(t, int64(6), snap.QueryTypeCounts[QueryTypeSingle])
	assert.Equal(t, int64(8), snap.LatencyDistribution[BucketP10])
	assert.Equal(t, "2026-10-01", snap.Since.Format(time.DateOnly))
}

func TestSQLiteStore_Report_DateRange(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveDaily("2026-09-30", Daily{Total: 5}))
	require.NoError(t, s.SaveDaily("2026-10-02", Daily{Total: 7}))

	snap, err := s.Report("2026-10-01", "2026-10-31", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.TotalQueries)

	empty, err := s.Report("2025-01-01", "2025-01-31", 10)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalQueries)
	assert.True(t, empty.Since.IsZero())
}

func TestSQLiteStore_TermCounts(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertTermCounts(map[string]int64{"salmon": 2, "pasta": 1}))
	require.NoError(t, s.UpsertTermCounts(map[string]int64{"pasta": 3}))
	require.NoError(t, s.UpsertTermCounts(nil))

	snap, err := s.Report(today(), today(), 1)
	require.NoError(t, err)
	assert.Equal(t, []TermCount{{Term: "pasta", Count: 4}}, snap.TopTerms)
}

func TestSQLiteStore_ZeroResultQueries_KeepsNewest(t *testing.T) {
	s := openTestStore(t)

	var queries []string
	for i := 0; i < maxZeroResultQueries+5; i++ {
		queries = append(queries, "q"+string(rune('a'+i%26)))
	}
	require.NoError(t, s.AddZeroResultQueries(queries, time.Now()))
	require.NoError(t, s.AddZeroResultQueries([]string{"tofu"}, time.Now()))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM zero_result_queries`).Scan(&n))
	assert.Equal(t, maxZeroResultQueries, n)

	snap, err := s.Report(today(), today(), 2)
	require.NoError(t, err)
	assert.Equal(t, "tofu", snap.ZeroResultQueries[0])
}

func TestQueryMetrics_FlushPersists(t *testing.T) {
	// Given: a collector on a store with periodic flushing off
	s := openTestStore(t)
	m := NewQueryMetricsWithConfig(s, Config{})

	// When: recording and closing
	m.Record(QueryEvent{Query: "salmon", ResultCount: 2, Latency: time.Millisecond})
	m.Record(QueryEvent{Query: "tofu", ResultCount: 0, Latency: time.Millisecond})
	require.NoError(t, m.Close())

	// Then: everything reached the store and memory is reset
	snap, err := s.Report(today(), today(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.Equal(t, []string{"tofu"}, snap.ZeroResultQueries)
	assert.Equal(t, int64(2), snap.LatencyDistribution[BucketP10])
	assert.Zero(t, m.Snapshot().TotalQueries)
}

func TestQueryMetrics_FlushWithNothingRecorded(t *testing.T) {
	s := openTestStore(t)
	m := NewQueryMetricsWithConfig(s, Config{})

	require.NoError(t, m.Flush())

	snap, err := s.Report(today(), today(), 10)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalQueries)
	require.NoError(t, m.Close())
}

func TestDefaultStatsPath_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SITESEARCH_DATA_DIR", dir)

	assert.Equal(t, filepath.Join(dir, "stats.db"), DefaultStatsPath())
}
