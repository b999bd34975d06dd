package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"

	"dwellwatch/internal/annotate"
	"dwellwatch/internal/model"
)

// fakeSource serves n blank frames at a fixed rate.
type fakeSource struct {
	fps    float64
	n      int
	served int
	closed int
	failAt int
	// onServe runs after a frame is handed out.
	onServe func(index int)
}

func (f *fakeSource) FPS() float64 { return f.fps }

func (f *fakeSource) Next(ctx context.Context) (model.Frame, error) {
	if f.failAt > 0 && f.served+1 == f.failAt {
		return model.Frame{}, errors.New("decode error")
	}
	if f.served >= f.n {
		return model.Frame{}, io.EOF
	}
	f.served++
	if f.onServe != nil {
		f.onServe(f.served)
	}
	return model.Frame{Width: 640, Height: 480, Image: []byte{0xFF, 0xD8, byte(f.served)}}, nil
}

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

// fakeVideo records written frames.
type fakeVideo struct {
	frames   []model.Frame
	failAt   int
	closeErr error
	closed   int
}

func (v *fakeVideo) Write(frame model.Frame) error {
	if v.failAt > 0 && frame.Index == v.failAt {
		return errors.New("disk full")
	}
	v.frames = append(v.frames, frame)
	return nil
}

func (v *fakeVideo) Close() error {
	v.closed++
	return v.closeErr
}

// oracleFunc adapts a function to the Oracle interface.
type oracleFunc func(ctx context.Context, frame model.Frame) ([]model.Detection, error)

func (f oracleFunc) Track(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	return f(ctx, frame)
}

// presentOn reports the given identities on the listed frames.
func presentOn(frames map[int][]model.IdentityID) oracleFunc {
	return func(_ context.Context, frame model.Frame) ([]model.Detection, error) {
		var dets []model.Detection
		for i, id := range frames[frame.Index] {
			dets = append(dets, model.Detection{
				IdentityID: id,
				Box:        model.BoundingBox{X1: 10 + i*50, Y1: 10, X2: 50 + i*50, Y2: 100},
				Confidence: 0.9,
			})
		}
		return dets, nil
	}
}

// presentRange reports identities on every frame in [from, to].
func presentRange(from, to int, ids ...model.IdentityID) map[int][]model.IdentityID {
	frames := map[int][]model.IdentityID{}
	for i := from; i <= to; i++ {
		frames[i] = ids
	}
	return frames
}

type recordingAnnotator struct {
	plans []annotate.Plan
	err   error
}

func (a *recordingAnnotator) Annotate(frame model.Frame, plan annotate.Plan) ([]byte, error) {
	a.plans = append(a.plans, plan)
	if a.err != nil {
		return nil, a.err
	}
	return append([]byte("annotated:"), frame.Image...), nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []model.FrameStatus
}

func (p *recordingPublisher) Publish(status model.FrameStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, status)
}

// memEvidence and memAudit are healthy in-memory sinks.
type memEvidence struct {
	puts []model.EvidenceInput
}

func (m *memEvidence) Put(_ context.Context, in model.EvidenceInput) (string, error) {
	m.puts = append(m.puts, in)
	return "ref-" + in.IdentityID.String(), nil
}

type memAudit struct {
	events []model.ViolationEvent
}

func (m *memAudit) Append(_ context.Context, event model.ViolationEvent) error {
	m.events = append(m.events, event)
	return nil
}
