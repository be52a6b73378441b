package renderer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatsFPSWindow(t *testing.T) {
	s := NewStats()
	start := time.Unix(100, 0)

	for i := 0; i < 59; i++ {
		now := start.Add(time.Duration(i) * time.Second / 60)
		assert.False(t, s.ObserveFrame(now, 16*time.Millisecond, 5, 100))
	}
	assert.True(t, s.ObserveFrame(start.Add(time.Second), 16*time.Millisecond, 5, 100))

	assert.InDelta(t, 60, s.FPS(), 1e-9)
	assert.InDelta(t, 60, testutil.ToFloat64(s.fps), 1e-9)
	assert.Equal(t, float64(300), testutil.ToFloat64(s.drawCalls))
	assert.Equal(t, float64(6000), testutil.ToFloat64(s.particles))
}

func TestStatsPassErrors(t *testing.T) {
	s := NewStats()
	s.PassFailed("bloom")
	s.PassFailed("bloom")
	assert.Equal(t, float64(2), testutil.ToFloat64(s.passErrors.WithLabelValues("bloom")))
	assert.Equal(t, float64(0), testutil.ToFloat64(s.passErrors.WithLabelValues("final")))
}

func TestStatsRegistryIsolated(t *testing.T) {
	// Two engines must not collide on metric names.
	a, b := NewStats(), NewStats()
	a.PassFailed("final")
	assert.Equal(t, float64(0), testutil.ToFloat64(b.passErrors.WithLabelValues("final")))
}
