// Package trackstore provides optional, additive persistence for a
// Tracker's template history H (spec §3, §4.8): entries are written to
// sqlite and can be read back with Load. Nothing in internal/cpdtrack
// depends on this package, and cpdtrack has no exported way to seed a
// Tracker's template matcher from loaded entries, so a restarted Tracker
// starts with an empty in-memory history.
//
// Grounded on internal/db/db.go (database/sql + modernc.org/sqlite, plain
// Exec/Query) and internal/db/migrate.go (golang-migrate/v4 with an
// embedded iofs migration source).
package trackstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ropetrack/cdcpd-go/internal/cpdtrack"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is one persisted (downsampled cloud, Y) history pair.
type Entry struct {
	ID       string
	Seq      int64
	Cloud    []cpdtrack.Point3
	Vertices []cpdtrack.Point3
}

// Store is a sqlite-backed log of template history entries; Save appends
// and, given a positive capacity, deletes the oldest rows beyond it.
type Store struct {
	db  *sql.DB
	seq int64
}

// Open opens (creating if necessary) a sqlite database at path and
// migrates it to the latest schema version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trackstore: open %q: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	seq, err := s.maxSeq()
	if err != nil {
		db.Close()
		return nil, err
	}
	s.seq = seq
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) maxSeq() (int64, error) {
	row := s.db.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM template_history`)
	var seq int64
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("trackstore: query max seq: %w", err)
	}
	return seq, nil
}

// Save appends one history entry, evicting the oldest rows beyond
// capacity (capacity <= 0 means unbounded).
func (s *Store) Save(cloud, vertices []cpdtrack.Point3, capacity int) (Entry, error) {
	cloudJSON, err := json.Marshal(cloud)
	if err != nil {
		return Entry{}, fmt.Errorf("trackstore: marshal cloud: %w", err)
	}
	vertsJSON, err := json.Marshal(vertices)
	if err != nil {
		return Entry{}, fmt.Errorf("trackstore: marshal vertices: %w", err)
	}

	s.seq++
	entry := Entry{ID: uuid.NewString(), Seq: s.seq, Cloud: cloud, Vertices: vertices}

	_, err = s.db.Exec(
		`INSERT INTO template_history (id, seq, cloud_json, vertices_json) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Seq, string(cloudJSON), string(vertsJSON),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("trackstore: insert: %w", err)
	}

	if capacity > 0 {
		if _, err := s.db.Exec(
			`DELETE FROM template_history WHERE seq <= (SELECT MAX(seq) FROM template_history) - ?`,
			capacity,
		); err != nil {
			log.Printf("trackstore: eviction failed: %v", err)
		}
	}

	return entry, nil
}

// Load returns up to limit most-recent entries, oldest first (the same
// order in which they were saved).
func (s *Store) Load(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, seq, cloud_json, vertices_json FROM template_history ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("trackstore: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var cloudJSON, vertsJSON string
		if err := rows.Scan(&e.ID, &e.Seq, &cloudJSON, &vertsJSON); err != nil {
			return nil, fmt.Errorf("trackstore: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(cloudJSON), &e.Cloud); err != nil {
			return nil, fmt.Errorf("trackstore: unmarshal cloud: %w", err)
		}
		if err := json.Unmarshal([]byte(vertsJSON), &e.Vertices); err != nil {
			return nil, fmt.Errorf("trackstore: unmarshal vertices: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trackstore: rows: %w", err)
	}

	// Reverse to oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
