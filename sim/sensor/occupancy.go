package sensor

import (
	"fmt"
	"math"
	"sort"

	"github.com/sensorfield/sensorsim/sim"
)

// OccupancyRecord asserts that Location was scanned at Time.
type OccupancyRecord struct {
	Location float64
	Time     sim.Time
}

// OccupancyLog is the append-only, time-ordered search history of a sensor.
type OccupancyLog struct {
	records []OccupancyRecord
}

// Append adds a record. Records must arrive in non-decreasing time order.
func (l *OccupancyLog) Append(location float64, t sim.Time) {
	if n := len(l.records); n > 0 && t < l.records[n-1].Time {
		panic(fmt.Sprintf("occupancy log: record at %v after %v", t, l.records[n-1].Time))
	}
	l.records = append(l.records, OccupancyRecord{Location: location, Time: t})
}

// Len returns the number of records.
func (l *OccupancyLog) Len() int { return len(l.records) }

// Records returns a copy of the log.
func (l *OccupancyLog) Records() []OccupancyRecord {
	return append([]OccupancyRecord(nil), l.records...)
}

// Window returns the records with from < Time <= to.
func (l *OccupancyLog) Window(from, to sim.Time) []OccupancyRecord {
	i := l.firstAfter(from)
	j := l.firstAfter(to)
	if j <= i {
		return nil
	}
	return append([]OccupancyRecord(nil), l.records[i:j]...)
}

// Illuminated reports whether some beam scanned within threshold of position
// during the half-open interval (from, to].
func (l *OccupancyLog) Illuminated(from, to sim.Time, position, threshold float64) bool {
	for i := l.firstAfter(from); i < len(l.records) && l.records[i].Time <= to; i++ {
		if math.Abs(l.records[i].Location-position) < threshold {
			return true
		}
	}
	return false
}

// firstAfter returns the index of the first record with Time > t.
func (l *OccupancyLog) firstAfter(t sim.Time) int {
	return sort.Search(len(l.records), func(i int) bool { return l.records[i].Time > t })
}
