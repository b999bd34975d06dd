package video

import (
	"path/filepath"
	"strings"

	"dwellwatch/internal/config"
	"dwellwatch/internal/service/session"
	"dwellwatch/internal/service/tracking"
)

// Opener prepares the OpenCV source, the annotated output and a fresh
// tracker for each session.
type Opener struct {
	detector  tracking.Detector
	outputDir string
}

// NewOpener creates an Opener sharing one detector across sessions.
func NewOpener(config *config.Config, detector tracking.Detector) *Opener {
	return &Opener{detector: detector, outputDir: config.OutputDirectory}
}

// Open implements session.Opener.
func (o *Opener) Open(job session.Job) (*session.Resources, error) {
	source, err := OpenFile(job.VideoPath)
	if err != nil {
		return nil, err
	}

	output := OutputPath(o.outputDir, job.VideoPath)
	return &session.Resources{
		Frames:     source,
		Oracle:     tracking.NewOracle(o.detector, nil),
		Video:      NewFileSink(output, source.FPS()),
		OutputPath: output,
	}, nil
}

// OutputPath is <dir>/<video name without extension>_annotated.mp4.
func OutputPath(dir, videoPath string) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_annotated.mp4")
}
