// Package store persists dwell observations to a SQLite database so
// per zone dwell statistics can be reported on after a run.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle holding dwell observations
type DB struct {
	*sql.DB
}

// ZoneTotal is an aggregate of the dwell events recorded for one zone
type ZoneTotal struct {
	Zone int
	// Tracks is the number of distinct track IDs seen in the zone
	Tracks int
	// TotalSeconds sums the final dwell time of each track
	TotalSeconds float64
	// MaxSeconds is the longest single dwell recorded in the zone
	MaxSeconds float64
}

// Open opens the dwell event database at the given path, creating the
// schema if it does not exist.  Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dwell_events (
			event_id TEXT PRIMARY KEY,
			zone INTEGER,
			track_id BIGINT,
			class INTEGER,
			seconds DOUBLE,
			frame BIGINT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_dwell_events_zone
			ON dwell_events (zone);
	`)

	if err != nil {
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &DB{db}, nil
}

// RecordDwell inserts one dwell observation, the elapsed seconds a
// track had accumulated in a zone as of the given frame
func (db *DB) RecordDwell(zone int, trackID int64, class int,
	seconds float64, frame int64, at time.Time) error {

	_, err := db.Exec(
		`INSERT INTO dwell_events
			(event_id, zone, track_id, class, seconds, frame, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), zone, trackID, class, seconds, frame, at.UTC())

	if err != nil {
		return fmt.Errorf("error recording dwell event: %w", err)
	}

	return nil
}

// ZoneTotals aggregates the recorded dwell events per zone.  Since an
// event is recorded per observation the per track maximum is the final
// dwell time of that track, TotalSeconds sums those maxima.
func (db *DB) ZoneTotals() ([]ZoneTotal, error) {

	rows, err := db.Query(`
		SELECT zone, COUNT(*), SUM(max_seconds), MAX(max_seconds)
		FROM (
			SELECT zone, track_id, MAX(seconds) AS max_seconds
			FROM dwell_events
			GROUP BY zone, track_id
		)
		GROUP BY zone
		ORDER BY zone`)

	if err != nil {
		return nil, fmt.Errorf("error querying zone totals: %w", err)
	}

	defer rows.Close()

	var totals []ZoneTotal

	for rows.Next() {

		var t ZoneTotal

		if err := rows.Scan(&t.Zone, &t.Tracks, &t.TotalSeconds,
			&t.MaxSeconds); err != nil {
			return nil, fmt.Errorf("error scanning zone total: %w", err)
		}

		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading zone totals: %w", err)
	}

	return totals, nil
}
