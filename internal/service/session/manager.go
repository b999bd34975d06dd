package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/metrics"
	"dwellwatch/internal/model"
	"dwellwatch/internal/pipeline"
	"dwellwatch/internal/violation"
)

// StateQueued is reported for sessions waiting for a worker.
const StateQueued = "Queued"

var (
	ErrQueueFull  = errors.New("session queue is full")
	ErrStopped    = errors.New("session manager is stopped")
	ErrNotFound   = errors.New("session not found")
	ErrNotRunning = errors.New("session already finished")
)

// Job is one uploaded video waiting to be processed.
type Job struct {
	ID        string
	Source    string
	VideoPath string
	CreatedAt time.Time
}

// Resources are the per-session collaborators opened for a job. Oracle is
// closed after the session if it implements io.Closer.
type Resources struct {
	Frames     pipeline.FrameSource
	Oracle     pipeline.Oracle
	Video      pipeline.VideoSink
	OutputPath string
}

// Opener opens the video and a fresh oracle for a job.
type Opener interface {
	Open(job Job) (*Resources, error)
}

// Broadcaster delivers live status to viewers.
type Broadcaster interface {
	Broadcast(payload []byte, session string)
}

// Sinks are shared by every session.
type Sinks struct {
	Evidence  pipeline.EvidenceSink
	Audit     pipeline.AuditSink
	Annotator pipeline.Annotator
}

// Info is the operator view of one session.
type Info struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	VideoPath  string             `json:"video_path"`
	State      string             `json:"state"`
	CreatedAt  time.Time          `json:"created_at"`
	Status     *model.FrameStatus `json:"status,omitempty"`
	Result     *pipeline.Result   `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	OutputPath string             `json:"output_path,omitempty"`
}

type entry struct {
	job     Job
	ctx     context.Context
	cancel  context.CancelFunc
	session *pipeline.Session
	status  *model.FrameStatus
	result  *pipeline.Result
	output  string
}

// Manager runs uploaded videos through the pipeline on a fixed pool of workers.
type Manager struct {
	opener    Opener
	sinks     Sinks
	hub       Broadcaster
	metrics   *metrics.Metrics
	evaluator *violation.Evaluator
	gap       time.Duration
	logger    *logger.Logger

	processingQueue chan *entry
	numWorkers      int

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*entry
	stopped  bool
	wg       sync.WaitGroup
}

// NewManager builds the evaluator from configuration and starts the workers.
func NewManager(config *config.Config, logger *logger.Logger, opener Opener, sinks Sinks, hub Broadcaster, m *metrics.Metrics) (*Manager, error) {
	policy, err := violation.ParsePolicy(config.ViolationPolicy)
	if err != nil {
		return nil, err
	}
	evaluator, err := violation.NewEvaluator(config.DwellThreshold, policy)
	if err != nil {
		return nil, err
	}
	if opener == nil || sinks.Evidence == nil || sinks.Audit == nil {
		return nil, errors.New("opener, evidence sink and audit sink are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	manager := &Manager{
		opener:          opener,
		sinks:           sinks,
		hub:             hub,
		metrics:         m,
		evaluator:       evaluator,
		gap:             config.ReentryGap,
		logger:          logger,
		processingQueue: make(chan *entry, config.SessionQueue),
		numWorkers:      config.SessionWorkers,
		ctx:             ctx,
		cancel:          cancel,
		sessions:        make(map[string]*entry),
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("Session manager started with %d worker(s), threshold %s, policy %s",
		manager.numWorkers, evaluator.Threshold(), evaluator.Policy())
	return manager, nil
}

// Submit queues a video for processing.
func (m *Manager) Submit(source, videoPath string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return Info{}, ErrStopped
	}

	ctx, cancel := context.WithCancel(m.ctx)
	e := &entry{
		job: Job{
			ID:        uuid.NewString(),
			Source:    source,
			VideoPath: videoPath,
			CreatedAt: time.Now(),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case m.processingQueue <- e:
	default:
		cancel()
		return Info{}, ErrQueueFull
	}

	m.sessions[e.job.ID] = e
	m.logger.Info("Session %s queued for %s", e.job.ID, source)
	return m.infoLocked(e), nil
}

// Get returns one session.
func (m *Manager) Get(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return Info{}, false
	}
	return m.infoLocked(e), true
}

// List returns all sessions, newest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, e := range m.sessions {
		infos = append(infos, m.infoLocked(e))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// Cancel stops a queued or running session. A running session finishes its
// current frame first.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	var finished bool
	if ok {
		finished = e.result != nil
	}
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if finished {
		return ErrNotRunning
	}
	e.cancel()
	m.logger.Info("Session %s cancellation requested", id)
	return nil
}

// Stop cancels every session and waits for the workers.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.logger.Info("All session workers stopped")
}

func (m *Manager) infoLocked(e *entry) Info {
	info := Info{
		ID:         e.job.ID,
		Source:     e.job.Source,
		VideoPath:  e.job.VideoPath,
		State:      StateQueued,
		CreatedAt:  e.job.CreatedAt,
		Status:     e.status,
		Result:     e.result,
		OutputPath: e.output,
	}
	switch {
	case e.result != nil:
		info.State = e.result.State.String()
		if e.result.Err != nil {
			info.Error = e.result.Err.Error()
		}
	case e.session != nil:
		info.State = e.session.State().String()
	}
	return info
}

// processingWorker runs queued sessions one at a time.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("Session worker %d started", workerID)

	for e := range m.processingQueue {
		m.process(e)
	}

	m.logger.Info("Session worker %d stopped", workerID)
}

func (m *Manager) process(e *entry) {
	defer e.cancel()

	if err := e.ctx.Err(); err != nil {
		m.finish(e, pipeline.Result{
			SessionID: e.job.ID,
			Source:    e.job.Source,
			State:     pipeline.SessionCancelled,
			Err:       err,
		})
		return
	}

	res, err := m.opener.Open(e.job)
	if err != nil {
		m.logger.Error("Session %s: failed to open %s: %v", e.job.ID, e.job.VideoPath, err)
		m.finish(e, pipeline.Result{
			SessionID: e.job.ID,
			Source:    e.job.Source,
			State:     pipeline.SessionFailed,
			Err:       &pipeline.SessionError{Stage: pipeline.AwaitingFrame, Kind: pipeline.ErrFrameSourceFailure, Err: err},
		})
		return
	}

	session, err := pipeline.New(pipeline.Settings{
		ID:         e.job.ID,
		Source:     e.job.Source,
		OutputPath: res.OutputPath,
		Evaluator:  m.evaluator,
		ReentryGap: m.gap,
	}, pipeline.Deps{
		Frames:    res.Frames,
		Oracle:    res.Oracle,
		Video:     res.Video,
		Evidence:  m.sinks.Evidence,
		Audit:     m.sinks.Audit,
		Annotator: m.sinks.Annotator,
		Publisher: &publisher{manager: m, entry: e},
		Metrics:   m.metrics,
		Logger:    m.logger,
	})
	if err != nil {
		res.Frames.Close()
		if res.Video != nil {
			res.Video.Close()
		}
		m.closeOracle(e, res.Oracle)
		m.finish(e, pipeline.Result{
			SessionID: e.job.ID,
			Source:    e.job.Source,
			State:     pipeline.SessionFailed,
			Err:       fmt.Errorf("failed to create session: %w", err),
		})
		return
	}

	m.mu.Lock()
	e.session = session
	e.output = res.OutputPath
	m.mu.Unlock()

	result := session.Run(e.ctx)
	m.closeOracle(e, res.Oracle)
	m.finish(e, result)
}

func (m *Manager) closeOracle(e *entry, oracle pipeline.Oracle) {
	closer, ok := oracle.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		m.logger.Warning("Session %s: error closing tracker: %v", e.job.ID, err)
	}
}

func (m *Manager) finish(e *entry, result pipeline.Result) {
	m.mu.Lock()
	e.result = &result
	info := m.infoLocked(e)
	m.mu.Unlock()

	m.broadcast(e.job.ID, info)
}

func (m *Manager) broadcast(id string, v interface{}) {
	if m.hub == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("Error encoding live status: %v", err)
		return
	}
	m.hub.Broadcast(payload, id)
}

// publisher records the latest frame status of one session and forwards it
// to live viewers.
type publisher struct {
	manager *Manager
	entry   *entry
}

func (p *publisher) Publish(status model.FrameStatus) {
	p.manager.mu.Lock()
	p.entry.status = &status
	p.manager.mu.Unlock()

	p.manager.broadcast(status.SessionID, status)
}
