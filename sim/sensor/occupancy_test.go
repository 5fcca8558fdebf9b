package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sensorfield/sensorsim/sim"
)

func TestOccupancyLog_IlluminatedCorrelation(t *testing.T) {
	// GIVEN a beam record at location 300, time 11
	var log OccupancyLog
	log.Append(250, 9)
	log.Append(300, 11)
	log.Append(320, 13)

	// WHEN correlating the interval (10, 12]
	// THEN an emitter at 300.5 was illuminated, one at 310 was not
	assert.True(t, log.Illuminated(10, 12, 300.5, 1.0))
	assert.False(t, log.Illuminated(10, 12, 310, 1.0))
}

func TestOccupancyLog_IntervalIsHalfOpen(t *testing.T) {
	var log OccupancyLog
	log.Append(300, 10)
	log.Append(400, 12)

	assert.False(t, log.Illuminated(10, 11, 300, 1.0), "record at the interval start is excluded")
	assert.True(t, log.Illuminated(11, 12, 400, 1.0), "record at the interval end is included")
	assert.False(t, log.Illuminated(10, 12, 301, 1.0), "distance must be strictly below the threshold")
}

func TestOccupancyLog_Window(t *testing.T) {
	var log OccupancyLog
	for i := 0; i < 5; i++ {
		log.Append(float64(i), sim.Time(i)/2)
	}
	w := log.Window(0.5, 1.5)
	assert.Equal(t, []OccupancyRecord{{Location: 2, Time: 1}, {Location: 3, Time: 1.5}}, w)
	assert.Nil(t, log.Window(3, 4))
	assert.Equal(t, 5, log.Len())
	assert.Len(t, log.Records(), 5)
}

func TestOccupancyLog_RejectsOutOfOrderAppend(t *testing.T) {
	var log OccupancyLog
	log.Append(1, 5)
	assert.Panics(t, func() { log.Append(1, 4) })
}
