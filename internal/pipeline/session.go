// Package pipeline runs one video through detection, dwell-time tracking,
// violation persistence and annotation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"dwellwatch/internal/annotate"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/metrics"
	"dwellwatch/internal/model"
	"dwellwatch/internal/presence"
	"dwellwatch/internal/violation"
)

// Settings identify a session and its violation rules.
type Settings struct {
	ID     string
	Source string
	// OutputPath is reported in the result when a video sink is attached.
	OutputPath string
	Evaluator  *violation.Evaluator
	ReentryGap time.Duration
	// Now supplies the wall clock used for audit timestamps.
	Now func() time.Time
}

// Deps are the collaborators of one session. Video, Annotator, Publisher
// and Metrics are optional.
type Deps struct {
	Frames    FrameSource
	Oracle    Oracle
	Video     VideoSink
	Evidence  EvidenceSink
	Audit     AuditSink
	Annotator Annotator
	Publisher StatusPublisher
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Result is the terminal summary of a session.
type Result struct {
	SessionID           string    `json:"session_id"`
	Source              string    `json:"source"`
	State               State     `json:"state"`
	Frames              int       `json:"frames"`
	Identities          int       `json:"identities"`
	ViolationsPersisted int       `json:"violations_persisted"`
	PersistFailures     int       `json:"persist_failures"`
	OutputPath          string    `json:"output_path,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	Err                 error     `json:"-"`
}

// Session processes one video. It is single-use.
type Session struct {
	settings Settings
	deps     Deps
	tracker  *presence.Tracker
	logger   *logger.Logger

	state     atomic.Int32
	startedAt time.Time
	result    Result
}

// New validates the collaborators and builds a session with a fresh tracker.
func New(settings Settings, deps Deps) (*Session, error) {
	switch {
	case settings.Source == "":
		return nil, errors.New("source identifier is required")
	case settings.Evaluator == nil:
		return nil, errors.New("evaluator is required")
	case deps.Frames == nil:
		return nil, errors.New("frame source is required")
	case deps.Oracle == nil:
		return nil, errors.New("tracker oracle is required")
	case deps.Evidence == nil:
		return nil, errors.New("evidence sink is required")
	case deps.Audit == nil:
		return nil, errors.New("audit sink is required")
	}

	if settings.Now == nil {
		settings.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	s := &Session{
		settings: settings,
		deps:     deps,
		tracker:  presence.New(presence.WithReentryGap(settings.ReentryGap)),
		logger:   log,
	}
	s.setState(AwaitingFrame)
	return s, nil
}

// State returns the current loop state. Safe to call from other goroutines.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Run processes frames until the source is exhausted, a fatal error occurs or
// ctx is cancelled. Cancellation is observed between frames; a frame already
// being processed completes first. The frame source and video sink are closed
// before Run returns.
func (s *Session) Run(ctx context.Context) Result {
	s.startedAt = s.settings.Now()
	s.result = Result{
		SessionID: s.settings.ID,
		Source:    s.settings.Source,
		StartedAt: s.startedAt,
	}
	if s.deps.Video != nil {
		s.result.OutputPath = s.settings.OutputPath
	}

	s.deps.Metrics.SessionStarted()
	s.logger.Info("Session %s started for %s (threshold %s, policy %s)",
		s.settings.ID, s.settings.Source, s.settings.Evaluator.Threshold(), s.settings.Evaluator.Policy())

	state, err := s.loop(ctx)

	if closeErr := s.deps.Frames.Close(); closeErr != nil {
		s.logger.Warning("Session %s: error closing frame source: %v", s.settings.ID, closeErr)
	}
	if s.deps.Video != nil {
		if closeErr := s.deps.Video.Close(); closeErr != nil && state != SessionFailed {
			state, err = SessionFailed, &SessionError{Stage: AnnotatingFrame, Frame: s.result.Frames, Kind: ErrVideoSinkFailure, Err: closeErr}
		}
	}

	s.setState(state)
	s.result.State = state
	s.result.Err = err
	s.result.Identities = s.tracker.Len()
	s.result.FinishedAt = s.settings.Now()
	s.deps.Metrics.SessionFinished(state.String())

	switch state {
	case SessionComplete:
		s.logger.Info("Session %s complete: %d frames, %d identities, %d violations persisted, %d persist failures",
			s.settings.ID, s.result.Frames, s.result.Identities, s.result.ViolationsPersisted, s.result.PersistFailures)
	case SessionCancelled:
		s.logger.Info("Session %s cancelled after %d frames", s.settings.ID, s.result.Frames)
	default:
		s.logger.Error("Session %s: %v", s.settings.ID, err)
	}

	return s.result
}

func (s *Session) loop(ctx context.Context) (State, error) {
	fps := s.deps.Frames.FPS()
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return SessionFailed, &SessionError{Stage: AwaitingFrame, Kind: ErrFrameSourceFailure, Err: fmt.Errorf("invalid frame rate %v", fps)}
	}

	// Work on the current frame runs to completion even after cancellation.
	work := context.WithoutCancel(ctx)

	for index := 1; ; index++ {
		s.setState(AwaitingFrame)
		if err := ctx.Err(); err != nil {
			return SessionCancelled, err
		}

		frame, err := s.deps.Frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			return SessionComplete, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return SessionCancelled, ctx.Err()
			}
			return SessionFailed, &SessionError{Stage: AwaitingFrame, Frame: index, Kind: ErrFrameSourceFailure, Err: err}
		}

		frame.Index = index
		frame.Timestamp = FrameTimestamp(index, fps)

		if err := s.processFrame(work, frame); err != nil {
			return SessionFailed, err
		}
		s.result.Frames = index
	}
}

// FrameTimestamp is the offset of the 1-based frame index at the given rate.
func FrameTimestamp(index int, fps float64) time.Duration {
	return time.Duration(float64(index) * float64(time.Second) / fps)
}

func (s *Session) processFrame(ctx context.Context, frame model.Frame) error {
	begin := time.Now()

	s.setState(DetectingIdentities)
	raw, err := s.deps.Oracle.Track(ctx, frame)
	if err != nil {
		return &SessionError{Stage: DetectingIdentities, Frame: frame.Index, Kind: ErrDetectorFailure, Err: err}
	}
	detections, dropped := Sanitize(frame, raw)
	if dropped > 0 {
		s.logger.Warning("Session %s frame %d: dropped %d invalid detections", s.settings.ID, frame.Index, dropped)
	}

	s.setState(UpdatingPresence)
	for _, det := range detections {
		s.tracker.Observe(det.IdentityID, frame.Timestamp)
	}

	s.setState(EvaluatingViolations)
	decision := s.settings.Evaluator.Decide(s.tracker)
	s.deps.Metrics.AddViolationsDetected(len(decision.Violating))

	s.setState(PersistingViolations)
	s.persist(ctx, frame, detections, decision.Persist)

	s.setState(AnnotatingFrame)
	snapshot := s.tracker.Snapshot()
	dwell := make(map[model.IdentityID]time.Duration, len(snapshot))
	for _, entry := range snapshot {
		dwell[entry.ID] = entry.Duration
	}

	if s.deps.Video != nil {
		out := frame
		if s.deps.Annotator != nil {
			img, err := s.deps.Annotator.Annotate(frame, annotate.Build(detections, dwell, decision.Violating))
			if err != nil {
				s.logger.Warning("Session %s frame %d: annotation failed, writing raw frame: %v", s.settings.ID, frame.Index, err)
			} else {
				out.Image = img
			}
		}
		if err := s.deps.Video.Write(out); err != nil {
			return &SessionError{Stage: AnnotatingFrame, Frame: frame.Index, Kind: ErrVideoSinkFailure, Err: err}
		}
	}

	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(s.status(frame, len(detections), snapshot, decision.Violating))
	}

	s.deps.Metrics.ObserveFrame(begin)
	return nil
}

func (s *Session) status(frame model.Frame, inScene int, snapshot []presence.Entry, violating violation.Set) model.FrameStatus {
	identities := make([]model.IdentityStatus, 0, len(snapshot))
	for _, entry := range snapshot {
		identities = append(identities, model.IdentityStatus{
			ID:           entry.ID,
			DwellSeconds: entry.Duration.Seconds(),
			Violation:    violating.Contains(entry.ID),
		})
	}
	return model.FrameStatus{
		SessionID:  s.settings.ID,
		Source:     s.settings.Source,
		FrameIndex: frame.Index,
		Seconds:    frame.Timestamp.Seconds(),
		InScene:    inScene,
		Identities: identities,
	}
}
