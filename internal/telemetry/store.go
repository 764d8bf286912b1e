package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// maxZeroResultQueries caps the persisted zero-result query list.
const maxZeroResultQueries = 100

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the stats database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}

	// Single connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the stats tables if they don't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	-- Searches per day
	CREATE TABLE IF NOT EXISTS daily_totals (
		date TEXT PRIMARY KEY,
		total INTEGER NOT NULL DEFAULT 0,
		zero_result INTEGER NOT NULL DEFAULT 0,
		cached INTEGER NOT NULL DEFAULT 0
	);

	-- Query type frequency (aggregated daily)
	CREATE TABLE IF NOT EXISTS query_type_stats (
		date TEXT NOT NULL,
		query_type TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, query_type)
	);

	-- Query terms with frequency count
	CREATE TABLE IF NOT EXISTS query_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	-- Zero-result queries, newest kept
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	-- Latency histogram (buckets: <10ms, 10-50ms, 50-100ms, 100-500ms, >=500ms)
	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create stats schema: %w", err)
	}
	return nil
}

// SaveDaily implements Store.
func (s *SQLiteStore) SaveDaily(date string, d Daily) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO daily_totals (date, total, zero_result, cached)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total = total + excluded.total,
			zero_result = zero_result + excluded.zero_result,
			cached = cached + excluded.cached
	`, date, d.Total, d.ZeroResult, d.Cached); err != nil {
		return fmt.Errorf("insert daily totals: %w", err)
	}

	for qt, count := range d.QueryTypes {
		if _, err := tx.Exec(`
			INSERT INTO query_type_stats (date, query_type, count)
			VALUES (?, ?, ?)
			ON CONFLICT(date, query_type) DO UPDATE SET count = count + excluded.count
		`, date, string(qt), count); err != nil {
			return fmt.Errorf("insert query type count: %w", err)
		}
	}

	for bucket, count := range d.Latencies {
		if _, err := tx.Exec(`
			INSERT INTO query_latency_stats (date, bucket, count)
			VALUES (?, ?, ?)
			ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
		`, date, string(bucket), count); err != nil {
			return fmt.Errorf("insert latency count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpsertTermCounts implements Store.
func (s *SQLiteStore) UpsertTermCounts(terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_terms (term, count, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for term, count := range terms {
		if _, err := stmt.Exec(term, count, now); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AddZeroResultQueries implements Store. At most the newest 100 are kept.
func (s *SQLiteStore) AddZeroResultQueries(queries []string, timestamp time.Time) error {
	if len(queries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := timestamp.UTC().Format(time.RFC3339)
	for _, q := range queries {
		if _, err := tx.Exec(`INSERT INTO zero_result_queries (query, timestamp) VALUES (?, ?)`, q, ts); err != nil {
			return fmt.Errorf("insert zero-result query: %w", err)
		}
	}

	if _, err := tx.Exec(`
		DELETE FROM zero_result_queries
		WHERE id NOT IN (
			SELECT id FROM zero_result_queries
			ORDER BY id DESC
			LIMIT ?
		)
	`, maxZeroResultQueries); err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Report implements Store. Dates are YYYY-MM-DD and inclusive.
func (s *SQLiteStore) Report(from, to string, limit int) (*Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	snap := &Snapshot{
		QueryTypeCounts:     make(map[QueryType]int64),
		LatencyDistribution: make(map[LatencyBucket]int64),
	}

	var first sql.NullString
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(total), 0), COALESCE(SUM(zero_result), 0), COALESCE(SUM(cached), 0), MIN(date)
		FROM daily_totals
		WHERE date >= ? AND date <= ?
	`, from, to).Scan(&snap.TotalQueries, &snap.ZeroResultCount, &snap.CachedCount, &first)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	if first.Valid {
		if t, err := time.Parse(time.DateOnly, first.String); err == nil {
			snap.Since = t
		}
	}

	if err := s.sumByKey(`
		SELECT query_type, SUM(count)
		FROM query_type_stats
		WHERE date >= ? AND date <= ?
		GROUP BY query_type
	`, from, to, func(k string, n int64) { snap.QueryTypeCounts[QueryType(k)] = n }); err != nil {
		return nil, fmt.Errorf("query type counts: %w", err)
	}

	if err := s.sumByKey(`
		SELECT bucket, SUM(count)
		FROM query_latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to, func(k string, n int64) { snap.LatencyDistribution[LatencyBucket(k)] = n }); err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}

	if snap.TopTerms, err = s.topTerms(limit); err != nil {
		return nil, err
	}
	if snap.ZeroResultQueries, err = s.zeroResultQueries(limit); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStore) sumByKey(query, from, to string, fn func(string, int64)) error {
	rows, err := s.db.Query(query, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		fn(key, count)
	}
	return rows.Err()
}

func (s *SQLiteStore) topTerms(limit int) ([]TermCount, error) {
	rows, err := s.db.Query(`
		SELECT term, count
		FROM query_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// zeroResultQueries returns the most recent zero-result queries, newest first.
func (s *SQLiteStore) zeroResultQueries(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT query
		FROM zero_result_queries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
