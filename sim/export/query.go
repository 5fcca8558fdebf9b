package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID is not in the database.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the stored header of one run plus row counts.
type RunSummary struct {
	ID         string
	Seed       int64
	Horizon    float64
	EndTime    float64
	Events     int64
	Published  int64
	CreatedAt  string
	Sensors    int
	Occupancy  int
	Tracks     int
	Detections int
}

// QualityPoint is one stored track-quality sample.
type QualityPoint struct {
	Time    float64
	Quality float64
}

// Run reads back the summary of a stored run.
func (s *Store) Run(ctx context.Context, runID string) (*RunSummary, error) {
	var r RunSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT id, seed, horizon, end_time, events, published, created_at FROM runs WHERE id = ?`, runID,
	).Scan(&r.ID, &r.Seed, &r.Horizon, &r.EndTime, &r.Events, &r.Published, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"sensors", &r.Sensors},
		{"occupancy", &r.Occupancy},
		{"tracks", &r.Tracks},
		{"detections", &r.Detections},
	}
	for _, c := range counts {
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE run_id = ?`, c.table)
		if err := s.db.QueryRowContext(ctx, q, runID).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return &r, nil
}

// RunIDs lists stored runs, oldest first.
func (s *Store) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TrackQuality returns the quality series of every stored track for one
// sensor and emitter, concatenated in time order.
func (s *Store) TrackQuality(ctx context.Context, runID, sensorID, emitterID string) ([]QualityPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.time, p.quality
		 FROM track_points p JOIN tracks t ON t.id = p.track_id
		 WHERE t.run_id = ? AND t.sensor_id = ? AND t.emitter_id = ?
		 ORDER BY t.id, p.seq`,
		runID, sensorID, emitterID,
	)
	if err != nil {
		return nil, fmt.Errorf("track quality: %w", err)
	}
	defer rows.Close()
	var out []QualityPoint
	for rows.Next() {
		var p QualityPoint
		if err := rows.Scan(&p.Time, &p.Quality); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// OutcomeCounts returns the number of stored detector decisions per outcome.
func (s *Store) OutcomeCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM detections WHERE run_id = ? GROUP BY outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("outcome counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}
