package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for dwell-time sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesProcessed     prometheus.Counter
	FrameDuration       prometheus.Histogram
	ViolationsDetected  prometheus.Counter
	ViolationsPersisted prometheus.Counter
	SinkFailures        *prometheus.CounterVec
	Sessions            *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwellwatch_frames_processed_total",
			Help: "Total number of frames that completed the processing loop",
		}),
		FrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dwellwatch_frame_duration_seconds",
			Help:    "Duration of one frame from detection to annotation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ViolationsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwellwatch_violations_detected_total",
			Help: "Total number of identity-frames over the dwell threshold",
		}),
		ViolationsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "dwellwatch_violations_persisted_total",
			Help: "Total number of violation events written to both sinks",
		}),
		SinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dwellwatch_sink_failures_total",
			Help: "Total number of sink write failures by sink and error kind",
		}, []string{"sink", "kind"}),
		Sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dwellwatch_sessions_total",
			Help: "Total number of finished sessions by terminal state",
		}, []string{"outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dwellwatch_active_sessions",
			Help: "Number of sessions currently processing frames",
		}),
	}
}

// ObserveFrame records one processed frame.
// Call with time.Now() at the start of the frame.
func (m *Metrics) ObserveFrame(start time.Time) {
	if m == nil {
		return
	}
	m.FramesProcessed.Inc()
	m.FrameDuration.Observe(time.Since(start).Seconds())
}

// AddViolationsDetected records identities over the threshold in one frame.
func (m *Metrics) AddViolationsDetected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ViolationsDetected.Add(float64(n))
}

// IncrementViolationsPersisted records an event written to both sinks.
func (m *Metrics) IncrementViolationsPersisted() {
	if m == nil {
		return
	}
	m.ViolationsPersisted.Inc()
}

// IncrementSinkFailure records a failed sink write.
func (m *Metrics) IncrementSinkFailure(sink, kind string) {
	if m == nil {
		return
	}
	m.SinkFailures.WithLabelValues(sink, kind).Inc()
}

// SessionStarted marks a session as active.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionFinished records the terminal state of a session.
func (m *Metrics) SessionFinished(outcome string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.Sessions.WithLabelValues(outcome).Inc()
}
