// Package jobdb keeps a secondary index of completed path jobs in sqlite.
// It is a read model for tooling and dashboards: writes go through a single
// background goroutine so the worker pool never waits on the database, and a
// full buffer drops entries rather than stalling.
package jobdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Record is one terminal job row.
type Record struct {
	JobID         uint64
	AgentID       string
	Status        string
	TotalCost     float64
	ExpandedNodes int
	Waypoints     int
	DurationMs    int64
	Error         string
	CompletedAt   string // RFC3339 UTC
}

type DB struct {
	db *sql.DB

	ch   chan Record
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DB{
		db: db,
		// Sized for bursty ticks where hundreds of agents complete paths at
		// once without stalling collection.
		ch: make(chan Record, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only workload; NORMAL is enough durability for a
	// secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_id INTEGER PRIMARY KEY,
			agent_id TEXT NOT NULL,
			status TEXT NOT NULL,
			total_cost REAL NOT NULL,
			expanded_nodes INTEGER NOT NULL,
			waypoints INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT,
			completed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_agent ON jobs(agent_id, job_id);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordJob enqueues a row for the writer goroutine. Never blocks; entries
// are dropped (and counted) when the buffer is full or the DB is closed.
func (s *DB) RecordJob(r Record) {
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many records were discarded due to backpressure.
func (s *DB) Dropped() uint64 { return s.dropped.Load() }

func (s *DB) loop() {
	for r := range s.ch {
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO jobs
			(job_id, agent_id, status, total_cost, expanded_nodes, waypoints, duration_ms, error, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.JobID, r.AgentID, r.Status, r.TotalCost, r.ExpandedNodes,
			r.Waypoints, r.DurationMs, r.Error, r.CompletedAt,
		)
		if err != nil {
			s.dropped.Add(1)
		}
	}
}

// JobCount returns the number of indexed jobs.
func (s *DB) JobCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	return n, err
}

// StatusCounts returns jobs per terminal status.
func (s *DB) StatusCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// RecentJobs returns up to limit rows, newest job ids first.
func (s *DB) RecentJobs(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, agent_id, status, total_cost, expanded_nodes, waypoints, duration_ms, COALESCE(error, ''), completed_at
		 FROM jobs ORDER BY job_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.JobID, &r.AgentID, &r.Status, &r.TotalCost,
			&r.ExpandedNodes, &r.Waypoints, &r.DurationMs, &r.Error, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close drains the writer and closes the database. Idempotent. Producers
// must stop calling RecordJob before Close (the server closes the runner
// first, which joins all workers).
func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
