package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// RunStore persists search runs to SQLite.
type RunStore struct {
	db  *sql.DB
	now func() time.Time
}

// RunStoreOption configures a RunStore.
type RunStoreOption func(*RunStore)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) RunStoreOption {
	return func(s *RunStore) {
		s.now = now
	}
}

// NewRunStore creates a SQLite-backed run store and initializes its schema.
func NewRunStore(db *sql.DB, opts ...RunStoreOption) (*RunStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	s := &RunStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		mode TEXT NOT NULL,
		sources_requested TEXT NOT NULL,
		sources_queried TEXT NOT NULL,
		total_before_fusion INTEGER NOT NULL,
		total_results INTEGER NOT NULL,
		reranked INTEGER NOT NULL,
		cache_hit INTEGER NOT NULL,
		total_time_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		fused_result_ids TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_search_runs_created ON search_runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS search_run_results (
		search_run_id TEXT NOT NULL REFERENCES search_runs(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		latency_ms INTEGER NOT NULL,
		result_count INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (search_run_id, source)
	);
	CREATE INDEX IF NOT EXISTS idx_run_results_source ON search_run_results(source);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// PersistRun writes a run and its per-provider children in one
// transaction. A missing ID or timestamp is filled in; the assigned run
// ID is returned and stamped onto the children.
func (s *RunStore) PersistRun(run *SearchRun, results []RunResult) (string, error) {
	if run == nil {
		return "", fmt.Errorf("run is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = s.now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO search_runs (
			id, query, mode, sources_requested, sources_queried,
			total_before_fusion, total_results, reranked, cache_hit,
			total_time_ms, created_at, fused_result_ids
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Query, run.Mode,
		marshalStrings(run.SourcesRequested), marshalStrings(run.SourcesQueried),
		run.TotalBeforeFusion, run.TotalResults, boolInt(run.Reranked), boolInt(run.CacheHit),
		run.TotalTimeMs, run.Timestamp.UnixMilli(), marshalStrings(run.FusedResultIDs),
	)
	if err != nil {
		return "", fmt.Errorf("insert search run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO search_run_results (
			search_run_id, source, latency_ms, result_count, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range results {
		results[i].SearchRunID = run.ID
		r := results[i]
		if _, err := stmt.Exec(run.ID, r.Source, r.LatencyMs, r.ResultCount, boolInt(r.Success), r.ErrorMessage); err != nil {
			return "", fmt.Errorf("insert run result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return run.ID, nil
}

// RecentRuns returns runs newest-first, optionally filtered.
func (s *RunStore) RecentRuns(filter RunFilter, limit int) ([]SearchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	q := `
		SELECT id, query, mode, sources_requested, sources_queried,
		       total_before_fusion, total_results, reranked, cache_hit,
		       total_time_ms, created_at, fused_result_ids
		FROM search_runs
		WHERE 1=1
	`
	var args []any
	if filter.Mode != "" {
		q += " AND mode = ?"
		args = append(args, filter.Mode)
	}
	if filter.CacheHit != nil {
		q += " AND cache_hit = ?"
		args = append(args, boolInt(*filter.CacheHit))
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []SearchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID, or ok=false if absent.
func (s *RunStore) GetRun(id string) (SearchRun, bool, error) {
	rows, err := s.db.Query(`
		SELECT id, query, mode, sources_requested, sources_queried,
		       total_before_fusion, total_results, reranked, cache_hit,
		       total_time_ms, created_at, fused_result_ids
		FROM search_runs
		WHERE id = ?
	`, id)
	if err != nil {
		return SearchRun{}, false, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return SearchRun{}, false, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return SearchRun{}, false, err
	}
	return run, true, nil
}

// RunDetail returns the per-provider rows for a run, in source order.
func (s *RunStore) RunDetail(runID string) ([]RunResult, error) {
	rows, err := s.db.Query(`
		SELECT search_run_id, source, latency_ms, result_count, success, error_message
		FROM search_run_results
		WHERE search_run_id = ?
		ORDER BY source
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run detail: %w", err)
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var r RunResult
		var success int
		if err := rows.Scan(&r.SearchRunID, &r.Source, &r.LatencyMs, &r.ResultCount, &success, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Success = success != 0
		results = append(results, r)
	}
	return results, rows.Err()
}

// SourceAnalytics aggregates per-source stats over a bounded sample of
// the most recent run results. Source narrows to one provider when
// non-empty; since excludes older runs; limit caps the sample size per
// the newest-first ordering.
func (s *RunStore) SourceAnalytics(source string, since time.Time, limit int) (map[string]SourceStats, error) {
	if limit <= 0 {
		limit = 100
	}

	q := `
		SELECT r.source, r.latency_ms, r.result_count, r.success
		FROM search_run_results r
		JOIN search_runs sr ON sr.id = r.search_run_id
		WHERE sr.created_at >= ?
	`
	args := []any{since.UnixMilli()}
	if source != "" {
		q += " AND r.source = ?"
		args = append(args, source)
	}
	q += " ORDER BY sr.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query source analytics: %w", err)
	}
	defer rows.Close()

	type acc struct {
		latencySum int64
		successes  int
		results    int64
		samples    int
	}
	accs := make(map[string]*acc)
	for rows.Next() {
		var (
			src       string
			latencyMs int64
			count     int
			success   int
		)
		if err := rows.Scan(&src, &latencyMs, &count, &success); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		a, ok := accs[src]
		if !ok {
			a = &acc{}
			accs[src] = a
		}
		a.latencySum += latencyMs
		a.results += int64(count)
		a.samples++
		if success != 0 {
			a.successes++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make(map[string]SourceStats, len(accs))
	for src, a := range accs {
		stats[src] = SourceStats{
			Source:       src,
			AvgLatencyMs: float64(a.latencySum) / float64(a.samples),
			SuccessRate:  int(math.Round(float64(a.successes) / float64(a.samples) * 100)),
			TotalResults: a.results,
			SampleSize:   a.samples,
		}
	}
	return stats, nil
}

// PurgeOlderThan deletes runs created before cutoff, cascading to their
// per-provider rows. Retention maintenance only.
func (s *RunStore) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM search_runs WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanRun(rows *sql.Rows) (SearchRun, error) {
	var (
		run                          SearchRun
		requested, queried, fusedIDs string
		reranked, cacheHit           int
		createdMs                    int64
	)
	err := rows.Scan(
		&run.ID, &run.Query, &run.Mode, &requested, &queried,
		&run.TotalBeforeFusion, &run.TotalResults, &reranked, &cacheHit,
		&run.TotalTimeMs, &createdMs, &fusedIDs,
	)
	if err != nil {
		return SearchRun{}, fmt.Errorf("scan row: %w", err)
	}
	run.SourcesRequested = unmarshalStrings(requested)
	run.SourcesQueried = unmarshalStrings(queried)
	run.FusedResultIDs = unmarshalStrings(fusedIDs)
	run.Reranked = reranked != 0
	run.CacheHit = cacheHit != 0
	run.Timestamp = time.UnixMilli(createdMs)
	return run, nil
}

func marshalStrings(vals []string) string {
	if len(vals) == 0 {
		return "[]"
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalStrings(raw string) []string {
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil
	}
	return vals
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
