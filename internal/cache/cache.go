package cache

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultHotEntries is the default capacity of the in-memory hot layer.
const DefaultHotEntries = 256

// Entry is one cached fused response.
type Entry struct {
	Fingerprint string
	Payload     []byte // serialized fused response (JSON)
	CreatedAt   time.Time
	ExpiresAt   time.Time
	HitCount    int64
}

// Expired reports whether the entry is logically dead at now.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Stats are process-lifetime cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Store is the TTL cache, layered on the shared SQLite store with an
// LRU hot layer in front. Expiry is lazy: reads treat a stale row as a
// miss but never delete it; the next Put for the same fingerprint
// overwrites in place.
//
// The hot layer holds Entry values, never shared pointers: every Get
// hands out its own copy, so concurrent readers and hit-count updates
// cannot race on one entry.
type Store struct {
	db  *sql.DB
	hot *lru.Cache[string, Entry]
	now func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// StoreOption configures a cache Store.
type StoreOption func(*Store)

// WithNow overrides the clock, for TTL tests.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithHotEntries sets the capacity of the in-memory hot layer.
func WithHotEntries(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.hot, _ = lru.New[string, Entry](n)
		}
	}
}

// NewStore creates the cache store and initializes its schema.
func NewStore(db *sql.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	hot, _ := lru.New[string, Entry](DefaultHotEntries)
	s := &Store{
		db:  db,
		hot: hot,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_cache (
		fingerprint TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		hit_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	return nil
}

// Get returns the entry for fingerprint, or ok=false on miss.
// A row past its expiry is a miss; it stays in place until the next Put
// (no write-on-read contention).
func (s *Store) Get(fingerprint string) (*Entry, bool, error) {
	now := s.now()

	if e, ok := s.hot.Get(fingerprint); ok {
		if e.Expired(now) {
			s.misses.Add(1)
			return nil, false, nil
		}
		s.hits.Add(1)
		return &e, true, nil
	}

	var (
		payload              []byte
		createdMs, expiresMs int64
		hits                 int64
	)
	err := s.db.QueryRow(`
		SELECT payload, created_at, expires_at, hit_count
		FROM search_cache
		WHERE fingerprint = ?
	`, fingerprint).Scan(&payload, &createdMs, &expiresMs, &hits)
	if err == sql.ErrNoRows {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	e := Entry{
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   time.UnixMilli(createdMs),
		ExpiresAt:   time.UnixMilli(expiresMs),
		HitCount:    hits,
	}
	if e.Expired(now) {
		s.misses.Add(1)
		return nil, false, nil
	}

	s.hot.Add(fingerprint, e)
	s.hits.Add(1)
	return &e, true, nil
}

// Put upserts the entry for fingerprint. An existing row is replaced in
// place and its hit count resets, since the cached payload changed.
func (s *Store) Put(fingerprint string, payload []byte, ttl time.Duration) error {
	now := s.now()
	expires := now.Add(ttl)

	_, err := s.db.Exec(`
		INSERT INTO search_cache (fingerprint, payload, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(fingerprint) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			hit_count = 0
	`, fingerprint, payload, now.UnixMilli(), expires.UnixMilli())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	s.hot.Add(fingerprint, Entry{
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   expires,
	})
	return nil
}

// RecordHit increments the hit count for fingerprint.
// Does not extend the entry's expiry.
func (s *Store) RecordHit(fingerprint string) error {
	_, err := s.db.Exec(`
		UPDATE search_cache SET hit_count = hit_count + 1
		WHERE fingerprint = ?
	`, fingerprint)
	if err != nil {
		return fmt.Errorf("record cache hit: %w", err)
	}

	// replace the hot copy rather than mutating it; entries handed out
	// by Get are snapshots and must stay untouched
	if e, ok := s.hot.Get(fingerprint); ok {
		e.HitCount++
		s.hot.Add(fingerprint, e)
	}
	return nil
}

// PurgeExpired deletes rows past their expiry. Maintenance only; the
// read path never depends on it.
func (s *Store) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM search_cache WHERE expires_at < ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	s.hot.Purge()
	return n, nil
}

// Stats returns process-lifetime hit/miss counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}
