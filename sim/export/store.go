// Package export persists run results to SQLite so that search history,
// emitter truth and track-quality series can be plotted outside the
// simulator.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sensorfield/sensorsim/sim/scenario"

	_ "modernc.org/sqlite"
)

// Store writes run results into one SQLite database. Several runs may share
// a database; every row is keyed by run ID.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		seed       INTEGER NOT NULL,
		horizon    REAL NOT NULL,
		end_time   REAL NOT NULL,
		events     INTEGER NOT NULL,
		published  INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sensors (
		run_id        TEXT NOT NULL REFERENCES runs(id),
		sensor_id     TEXT NOT NULL,
		fence_min     REAL NOT NULL,
		fence_max     REAL NOT NULL,
		search_width  REAL NOT NULL,
		locations     INTEGER NOT NULL,
		beam_requests INTEGER NOT NULL,
		beam_grants   INTEGER NOT NULL,
		peak_queue    INTEGER NOT NULL,
		live_tracks   INTEGER NOT NULL,
		PRIMARY KEY (run_id, sensor_id)
	);

	CREATE TABLE IF NOT EXISTS occupancy (
		run_id    TEXT NOT NULL REFERENCES runs(id),
		sensor_id TEXT NOT NULL,
		location  REAL NOT NULL,
		time      REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_occupancy_sensor ON occupancy(run_id, sensor_id, time);

	CREATE TABLE IF NOT EXISTS emitter_positions (
		run_id     TEXT NOT NULL REFERENCES runs(id),
		emitter_id TEXT NOT NULL,
		time       REAL NOT NULL,
		position   REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_positions_emitter ON emitter_positions(run_id, emitter_id, time);

	CREATE TABLE IF NOT EXISTS tracks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL REFERENCES runs(id),
		sensor_id  TEXT NOT NULL,
		emitter_id TEXT NOT NULL,
		started    REAL NOT NULL,
		ended      REAL NOT NULL,
		quality    REAL NOT NULL,
		updates    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tracks_run ON tracks(run_id, sensor_id, emitter_id);

	CREATE TABLE IF NOT EXISTS track_points (
		track_id INTEGER NOT NULL REFERENCES tracks(id),
		seq      INTEGER NOT NULL,
		time     REAL NOT NULL,
		quality  REAL NOT NULL,
		PRIMARY KEY (track_id, seq)
	);

	CREATE TABLE IF NOT EXISTS detections (
		run_id      TEXT NOT NULL REFERENCES runs(id),
		sensor_id   TEXT NOT NULL,
		emitter_id  TEXT NOT NULL,
		clock       REAL NOT NULL,
		position    REAL NOT NULL,
		prev_time   REAL,
		illuminated INTEGER NOT NULL,
		sample      REAL NOT NULL,
		outcome     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_detections_run ON detections(run_id, sensor_id, outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WriteResults stores one run in a single transaction. Writing the same
// run ID twice fails.
func (s *Store) WriteResults(ctx context.Context, res *scenario.Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, seed, horizon, end_time, events, published, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Seed, res.Horizon, res.EndTime, res.EventsExecuted, res.Published,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	for _, sr := range res.Sensors {
		if err := writeSensor(ctx, tx, res.RunID, sr); err != nil {
			return err
		}
	}
	for _, er := range res.Emitters {
		if err := writeEmitter(ctx, tx, res.RunID, er); err != nil {
			return err
		}
	}
	if res.Trace != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO detections (run_id, sensor_id, emitter_id, clock, position, prev_time, illuminated, sample, outcome)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare detections: %w", err)
		}
		defer stmt.Close()
		for _, d := range res.Trace.Detections {
			var prev sql.NullFloat64
			if d.HasPrev {
				prev = sql.NullFloat64{Float64: d.PrevTime, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, res.RunID, d.SensorID, d.EmitterID, d.Clock, d.Position,
				prev, d.Illuminated, d.Sample, string(d.Outcome)); err != nil {
				return fmt.Errorf("insert detection: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", res.RunID, err)
	}
	return nil
}

func writeSensor(ctx context.Context, tx *sql.Tx, runID string, sr scenario.SensorResult) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sensors (run_id, sensor_id, fence_min, fence_max, search_width, locations,
		                      beam_requests, beam_grants, peak_queue, live_tracks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sr.ID, sr.FenceMin, sr.FenceMax, sr.SearchWidth, sr.Locations,
		sr.Beams.Requests, sr.Beams.Grants, sr.Beams.PeakQueueLen, sr.LiveTracks,
	); err != nil {
		return fmt.Errorf("insert sensor %s: %w", sr.ID, err)
	}

	occ, err := tx.PrepareContext(ctx, `INSERT INTO occupancy (run_id, sensor_id, location, time) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare occupancy: %w", err)
	}
	defer occ.Close()
	for _, rec := range sr.Occupancy {
		if _, err := occ.ExecContext(ctx, runID, sr.ID, rec.Location, float64(rec.Time)); err != nil {
			return fmt.Errorf("insert occupancy: %w", err)
		}
	}

	pts, err := tx.PrepareContext(ctx, `INSERT INTO track_points (track_id, seq, time, quality) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare track points: %w", err)
	}
	defer pts.Close()
	for _, tr := range sr.Tracks {
		r, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (run_id, sensor_id, emitter_id, started, ended, quality, updates)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, sr.ID, tr.EmitterID, float64(tr.Started), float64(tr.Ended), tr.Quality, len(tr.Points),
		)
		if err != nil {
			return fmt.Errorf("insert track %s/%s: %w", sr.ID, tr.EmitterID, err)
		}
		trackID, err := r.LastInsertId()
		if err != nil {
			return fmt.Errorf("track id: %w", err)
		}
		for i, p := range tr.Points {
			if _, err := pts.ExecContext(ctx, trackID, i, float64(p.Time), p.Quality); err != nil {
				return fmt.Errorf("insert track point: %w", err)
			}
		}
	}
	return nil
}

func writeEmitter(ctx context.Context, tx *sql.Tx, runID string, er scenario.EmitterResult) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO emitter_positions (run_id, emitter_id, time, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare positions: %w", err)
	}
	defer stmt.Close()
	for _, wp := range er.Waypoints {
		if _, err := stmt.ExecContext(ctx, runID, er.ID, float64(wp.Time), wp.Position); err != nil {
			return fmt.Errorf("insert position %s: %w", er.ID, err)
		}
	}
	return nil
}
