// Package telemetry records what visitors search for: popular terms, queries
// that found nothing and how long searches took. All data stays on this
// machine in a local SQLite file.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Query Types
// =============================================================================

// QueryType classifies a query by its number of terms.
type QueryType string

const (
	QueryTypeSingle QueryType = "single"
	QueryTypeMulti  QueryType = "multi"
)

// ClassifyQuery returns the query type of q.
func ClassifyQuery(q string) QueryType {
	if len(strings.Fields(q)) > 1 {
		return QueryTypeMulti
	}
	return QueryTypeSingle
}

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket names a latency histogram bucket by its upper bound in
// milliseconds. p1000 holds everything from 500ms up.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"
	BucketP50   LatencyBucket = "p50"
	BucketP100  LatencyBucket = "p100"
	BucketP500  LatencyBucket = "p500"
	BucketP1000 LatencyBucket = "p1000"
)

// Buckets lists the latency buckets in ascending order.
var Buckets = []LatencyBucket{BucketP10, BucketP50, BucketP100, BucketP500, BucketP1000}

var bucketBounds = []time.Duration{
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
}

// LatencyToBucket returns the bucket d falls in.
func LatencyToBucket(d time.Duration) LatencyBucket {
	for i, bound := range bucketBounds {
		if d < bound {
			return Buckets[i]
		}
	}
	return BucketP1000
}

// =============================================================================
// Query Event
// =============================================================================

// QueryEvent is one executed search.
type QueryEvent struct {
	Query       string
	Language    string
	ResultCount int
	Latency     time.Duration
	Cached      bool
	Timestamp   time.Time
}

// IsZeroResult returns true if this query returned no results.
func (e QueryEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// recentQueries keeps the last n queries, oldest first.
type recentQueries struct {
	n     int
	items []string
}

func (r *recentQueries) add(q string) {
	r.items = append(r.items, q)
	if over := len(r.items) - r.n; over > 0 {
		r.items = append(r.items[:0], r.items[over:]...)
	}
}

func (r *recentQueries) list() []string {
	return append([]string{}, r.items...)
}

// =============================================================================
// Term Extraction
// =============================================================================

// minTermRunes filters out terms too short to say anything about content.
const minTermRunes = 3

// ExtractTerms lowercases a query and returns its terms of at least three
// characters.
func ExtractTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) >= minTermRunes {
			terms = append(terms, w)
		}
	}
	return terms
}

// TermCount is a term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is an immutable view of query metrics.
type Snapshot struct {
	QueryTypeCounts     map[QueryType]int64     `json:"query_type_counts"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	CachedCount         int64                   `json:"cached_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the percentage of zero-result queries.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// sortTerms orders terms by descending count, then alphabetically.
func sortTerms(terms []TermCount) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
}

// =============================================================================
// Store
// =============================================================================

// Store persists query metrics.
type Store interface {
	// SaveDaily adds query type, latency and total counts for a day.
	SaveDaily(date string, d Daily) error

	// UpsertTermCounts adds to term frequency counts.
	UpsertTermCounts(terms map[string]int64) error

	// AddZeroResultQueries appends to the bounded list of zero-result queries.
	AddZeroResultQueries(queries []string, timestamp time.Time) error

	// Report aggregates the days in [from, to] with the top terms and the
	// most recent zero-result queries.
	Report(from, to string, limit int) (*Snapshot, error)

	// Close releases resources.
	Close() error
}

// Daily holds the counters aggregated per day.
type Daily struct {
	QueryTypes map[QueryType]int64
	Latencies  map[LatencyBucket]int64
	Total      int64
	ZeroResult int64
	Cached     int64
}

// =============================================================================
// Query Metrics
// =============================================================================

// Config configures the collector.
type Config struct {
	TopTermsCapacity    int           // max terms tracked between flushes (default: 100)
	ZeroResultsCapacity int           // max zero-result queries kept between flushes (default: 100)
	FlushInterval       time.Duration // 0 disables periodic flushing
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    100,
		ZeroResultsCapacity: 100,
		FlushInterval:       time.Minute,
	}
}

// QueryMetrics aggregates query events in memory and periodically adds them
// to a Store. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	queryTypes  map[QueryType]int64
	topTerms    *lru.Cache[string, int64]
	zeroResults *recentQueries
	latencies   map[LatencyBucket]int64
	total       int64
	zeroCount   int64
	cached      int64
	startTime   time.Time

	store       Store
	config      Config
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closed      bool
}

// NewQueryMetrics creates a collector with the default configuration.
// If store is nil, metrics are only kept in memory.
func NewQueryMetrics(store Store) *QueryMetrics {
	return NewQueryMetricsWithConfig(store, DefaultConfig())
}

// NewQueryMetricsWithConfig creates a collector with a custom configuration.
func NewQueryMetricsWithConfig(store Store, cfg Config) *QueryMetrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	m := &QueryMetrics{
		topTerms:    topTerms,
		zeroResults: &recentQueries{n: cfg.ZeroResultsCapacity},
		startTime:   time.Now(),
		store:       store,
		config:      cfg,
		stopCh:      make(chan struct{}),
	}
	m.reset()

	if cfg.FlushInterval > 0 && store != nil {
		m.flushTicker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}

	return m
}

func (m *QueryMetrics) flushLoop() {
	for {
		select {
		case <-m.flushTicker.C:
			_ = m.Flush()
		case <-m.stopCh:
			return
		}
	}
}

// reset clears the in-memory aggregates. Must be called with mu held.
func (m *QueryMetrics) reset() {
	m.queryTypes = make(map[QueryType]int64)
	m.latencies = make(map[LatencyBucket]int64)
	m.topTerms.Purge()
	m.zeroResults.items = nil
	m.total, m.zeroCount, m.cached = 0, 0, 0
}

// Record adds one search to the aggregates. Blank queries are ignored.
func (m *QueryMetrics) Record(event QueryEvent) {
	query := strings.TrimSpace(event.Query)
	if query == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.queryTypes[ClassifyQuery(query)]++
	m.total++
	if event.Cached {
		m.cached++
	}

	for _, term := range ExtractTerms(query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}

	if event.IsZeroResult() {
		m.zeroResults.add(query)
		m.zeroCount++
	}

	m.latencies[LatencyToBucket(event.Latency)]++
}

// Snapshot returns the metrics recorded since the last flush.
func (m *QueryMetrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *QueryMetrics) snapshot() *Snapshot {
	typeCounts := make(map[QueryType]int64, len(m.queryTypes))
	for k, v := range m.queryTypes {
		typeCounts[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	sortTerms(topTerms)

	return &Snapshot{
		QueryTypeCounts:     typeCounts,
		TopTerms:            topTerms,
		ZeroResultQueries:   m.zeroResults.list(),
		LatencyDistribution: latencies,
		TotalQueries:        m.total,
		ZeroResultCount:     m.zeroCount,
		CachedCount:         m.cached,
		Since:               m.startTime,
	}
}

// Flush adds the metrics recorded since the last flush to the store and
// starts a new aggregation period. Safe to call without a store.
func (m *QueryMetrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	snap := m.snapshot()
	m.reset()
	m.startTime = time.Now()
	m.mu.Unlock()

	if snap.TotalQueries == 0 {
		return nil
	}

	now := time.Now()
	if err := m.store.SaveDaily(now.Format(time.DateOnly), Daily{
		QueryTypes: snap.QueryTypeCounts,
		Latencies:  snap.LatencyDistribution,
		Total:      snap.TotalQueries,
		ZeroResult: snap.ZeroResultCount,
		Cached:     snap.CachedCount,
	}); err != nil {
		return err
	}

	terms := make(map[string]int64, len(snap.TopTerms))
	for _, tc := range snap.TopTerms {
		terms[tc.Term] = tc.Count
	}
	if err := m.store.UpsertTermCounts(terms); err != nil {
		return err
	}

	return m.store.AddZeroResultQueries(snap.ZeroResultQueries, now)
}

// Close stops periodic flushing and flushes what is left. The store is not
// closed.
func (m *QueryMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopCh)
	}

	return m.Flush()
}
