package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/pipeline"
)

// =============================================================================
// Fakes
// =============================================================================

type scriptedSource struct {
	n      int
	served int
	// block makes Next wait for cancellation after the first frame.
	block  bool
	closed bool
}

func (s *scriptedSource) FPS() float64 { return 1 }

func (s *scriptedSource) Next(ctx context.Context) (model.Frame, error) {
	if s.block && s.served >= 1 {
		<-ctx.Done()
		return model.Frame{}, ctx.Err()
	}
	if s.served >= s.n {
		return model.Frame{}, io.EOF
	}
	s.served++
	return model.Frame{Width: 100, Height: 100, Image: []byte{1}}, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// constantOracle reports identity 1 in every frame.
type constantOracle struct {
	closed bool
}

func (o *constantOracle) Track(_ context.Context, _ model.Frame) ([]model.Detection, error) {
	return []model.Detection{{IdentityID: 1, Box: model.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.9}}, nil
}

func (o *constantOracle) Close() error {
	o.closed = true
	return nil
}

type fakeOpener struct {
	mu      sync.Mutex
	frames  int
	block   bool
	err     error
	oracles []*constantOracle
}

func (o *fakeOpener) Open(job Job) (*Resources, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	oracle := &constantOracle{}
	o.oracles = append(o.oracles, oracle)
	return &Resources{
		Frames:     &scriptedSource{n: o.frames, block: o.block},
		Oracle:     oracle,
		OutputPath: "output/" + job.ID + "_annotated.mp4",
	}, nil
}

type syncEvidence struct {
	mu   sync.Mutex
	puts int
}

func (e *syncEvidence) Put(_ context.Context, in model.EvidenceInput) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.puts++
	return "ref", nil
}

type syncAudit struct {
	mu     sync.Mutex
	events []model.ViolationEvent
}

func (a *syncAudit) Append(_ context.Context, ev model.ViolationEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *syncAudit) count(source string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, ev := range a.events {
		if ev.Source == source {
			n++
		}
	}
	return n
}

type captureHub struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (h *captureHub) Broadcast(payload []byte, session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.messages == nil {
		h.messages = map[string][][]byte{}
	}
	h.messages[session] = append(h.messages[session], payload)
}

func (h *captureHub) count(session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages[session])
}

// =============================================================================
// Session Manager Test Suite
// =============================================================================

type ManagerSuite struct {
	suite.Suite
	cfg      *config.Config
	opener   *fakeOpener
	evidence *syncEvidence
	audit    *syncAudit
	hub      *captureHub
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.cfg = config.Default()
	s.cfg.DwellThreshold = 5 * time.Second
	s.cfg.ViolationPolicy = "once"
	s.cfg.SessionWorkers = 2
	s.cfg.SessionQueue = 4
	s.opener = &fakeOpener{frames: 10}
	s.evidence = &syncEvidence{}
	s.audit = &syncAudit{}
	s.hub = &captureHub{}
}

func (s *ManagerSuite) newManager() *Manager {
	m, err := NewManager(s.cfg, logger.Discard(), s.opener, Sinks{Evidence: s.evidence, Audit: s.audit}, s.hub, nil)
	s.Require().NoError(err)
	s.T().Cleanup(m.Stop)
	return m
}

func (s *ManagerSuite) waitForState(m *Manager, id, state string) Info {
	var info Info
	s.Require().Eventually(func() bool {
		info, _ = m.Get(id)
		return info.State == state
	}, 5*time.Second, 10*time.Millisecond, "session %s never reached %s", id, state)
	return info
}

func (s *ManagerSuite) TestSessionRunsToCompletion() {
	m := s.newManager()

	info, err := m.Submit("lobby.mp4", "/videos/a.mp4")
	s.Require().NoError(err)
	s.NotEmpty(info.ID)

	done := s.waitForState(m, info.ID, "SessionComplete")
	s.Require().NotNil(done.Result)
	s.Equal(10, done.Result.Frames)
	s.Equal(1, done.Result.ViolationsPersisted)
	s.Equal("output/"+info.ID+"_annotated.mp4", done.OutputPath)
	s.Require().NotNil(done.Status)
	s.Equal(10, done.Status.FrameIndex)
	s.Equal(1, s.audit.count("lobby.mp4"))

	// One status per frame plus the terminal summary.
	s.Equal(11, s.hub.count(info.ID))

	s.opener.mu.Lock()
	s.True(s.opener.oracles[0].closed)
	s.opener.mu.Unlock()
}

func (s *ManagerSuite) TestSessionsHaveIndependentTrackers() {
	m := s.newManager()

	a, err := m.Submit("a.mp4", "/videos/a.mp4")
	s.Require().NoError(err)
	b, err := m.Submit("b.mp4", "/videos/b.mp4")
	s.Require().NoError(err)

	s.waitForState(m, a.ID, "SessionComplete")
	s.waitForState(m, b.ID, "SessionComplete")

	// Identity 1 exists in both videos; each session flags it on its own.
	s.Equal(1, s.audit.count("a.mp4"))
	s.Equal(1, s.audit.count("b.mp4"))
	s.Len(m.List(), 2)
}

func (s *ManagerSuite) TestCancelRunningSession() {
	s.opener.block = true
	m := s.newManager()

	info, err := m.Submit("cam.mp4", "/videos/cam.mp4")
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		got, _ := m.Get(info.ID)
		return got.Status != nil
	}, 5*time.Second, 10*time.Millisecond)

	s.Require().NoError(m.Cancel(info.ID))
	done := s.waitForState(m, info.ID, "SessionCancelled")
	s.Equal(1, done.Result.Frames)

	s.ErrorIs(m.Cancel(info.ID), ErrNotRunning)
	s.ErrorIs(m.Cancel("missing"), ErrNotFound)
}

func (s *ManagerSuite) TestOpenFailure() {
	s.opener.err = errors.New("no such file")
	m := s.newManager()

	info, err := m.Submit("gone.mp4", "/videos/gone.mp4")
	s.Require().NoError(err)

	done := s.waitForState(m, info.ID, "SessionFailed")
	s.Contains(done.Error, "no such file")
	s.ErrorIs(done.Result.Err, pipeline.ErrFrameSourceFailure)
}

func (s *ManagerSuite) TestQueueFullAndStop() {
	s.opener.block = true
	s.cfg.SessionWorkers = 1
	s.cfg.SessionQueue = 1
	m := s.newManager()

	first, err := m.Submit("1.mp4", "/v/1.mp4")
	s.Require().NoError(err)
	s.Require().Eventually(func() bool {
		got, _ := m.Get(first.ID)
		return got.Status != nil
	}, 5*time.Second, 10*time.Millisecond)

	second, err := m.Submit("2.mp4", "/v/2.mp4")
	s.Require().NoError(err)
	s.Equal(StateQueued, second.State)

	_, err = m.Submit("3.mp4", "/v/3.mp4")
	s.ErrorIs(err, ErrQueueFull)

	m.Stop()
	got, _ := m.Get(first.ID)
	s.Equal("SessionCancelled", got.State)
	got, _ = m.Get(second.ID)
	s.Equal("SessionCancelled", got.State)

	_, err = m.Submit("4.mp4", "/v/4.mp4")
	s.ErrorIs(err, ErrStopped)
}

func (s *ManagerSuite) TestInfoJSON() {
	m := s.newManager()
	info, err := m.Submit("lobby.mp4", "/videos/a.mp4")
	s.Require().NoError(err)
	done := s.waitForState(m, info.ID, "SessionComplete")

	raw, err := json.Marshal(done)
	s.Require().NoError(err)
	var decoded map[string]interface{}
	s.Require().NoError(json.Unmarshal(raw, &decoded))
	s.Equal("SessionComplete", decoded["state"])
	result := decoded["result"].(map[string]interface{})
	s.Equal("SessionComplete", result["state"])
}

func (s *ManagerSuite) TestNewManagerValidation() {
	s.cfg.ViolationPolicy = "sometimes"
	_, err := NewManager(s.cfg, logger.Discard(), s.opener, Sinks{Evidence: s.evidence, Audit: s.audit}, nil, nil)
	s.Error(err)

	s.cfg.ViolationPolicy = "refire"
	_, err = NewManager(s.cfg, logger.Discard(), nil, Sinks{Evidence: s.evidence, Audit: s.audit}, nil, nil)
	s.Error(err)
}
