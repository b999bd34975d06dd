package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFrame(time.Now())
	m.ObserveFrame(time.Now())
	m.AddViolationsDetected(3)
	m.AddViolationsDetected(0)
	m.IncrementViolationsPersisted()
	m.IncrementSinkFailure("evidence", "unavailable")
	m.IncrementSinkFailure("evidence", "unavailable")
	m.IncrementSinkFailure("audit", "io")
	m.SessionStarted()
	m.SessionStarted()
	m.SessionFinished("SessionComplete")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesProcessed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ViolationsDetected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViolationsPersisted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SinkFailures.WithLabelValues("evidence", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkFailures.WithLabelValues("audit", "io")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("SessionComplete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	count, err := testutil.GatherAndCount(reg, "dwellwatch_frame_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFrame(time.Now())
		m.AddViolationsDetected(1)
		m.IncrementViolationsPersisted()
		m.IncrementSinkFailure("audit", "io")
		m.SessionStarted()
		m.SessionFinished("SessionFailed")
	})
}
