package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"dwellwatch/internal/app"
	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/pipeline"
	"dwellwatch/internal/service/ai"
	"dwellwatch/internal/service/session"
	"dwellwatch/internal/service/video"
	"dwellwatch/internal/violation"
)

// progress prints one line per second of video.
type progress struct {
	every int
}

func (p progress) Publish(status model.FrameStatus) {
	if p.every > 0 && status.FrameIndex%p.every != 0 {
		return
	}
	violating := 0
	for _, id := range status.Identities {
		if id.Violation {
			violating++
		}
	}
	fmt.Printf("%8.1fs  frame %6d  in scene %3d  tracked %3d  violating %3d\n",
		status.Seconds, status.FrameIndex, status.InScene, len(status.Identities), violating)
}

func main() {
	os.Exit(run())
}

func run() int {
	videoPath := flag.String("video", "", "Video file to process")
	source := flag.String("source", "", "Source name recorded in the audit log (default: video file name)")
	threshold := flag.Float64("threshold", 0, "Dwell threshold in seconds (default: DWELL_THRESHOLD)")
	policy := flag.String("policy", "", "Violation policy, refire or once (default: VIOLATION_POLICY)")
	flag.Parse()

	if *videoPath == "" {
		flag.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	if *threshold > 0 {
		cfg.DwellThreshold = time.Duration(*threshold * float64(time.Second))
	}
	if *policy != "" {
		cfg.ViolationPolicy = *policy
	}
	if *source == "" {
		*source = filepath.Base(*videoPath)
	}
	logger := logger.NewLogger(cfg)

	p, err := violation.ParsePolicy(cfg.ViolationPolicy)
	if err != nil {
		logger.Error("Invalid policy: %v", err)
		return 1
	}
	evaluator, err := violation.NewEvaluator(cfg.DwellThreshold, p)
	if err != nil {
		logger.Error("Invalid threshold: %v", err)
		return 1
	}

	stores, err := app.OpenStores(cfg, logger)
	if err != nil {
		logger.Error("Failed to open stores: %v", err)
		return 1
	}
	defer stores.Close()

	detector, err := ai.NewDetectorService(cfg, logger)
	if err != nil {
		logger.Error("Failed to load detector: %v", err)
		return 1
	}
	defer detector.Close()

	job := session.Job{ID: uuid.NewString(), Source: *source, VideoPath: *videoPath, CreatedAt: time.Now()}
	res, err := video.NewOpener(cfg, detector).Open(job)
	if err != nil {
		logger.Error("Failed to open video: %v", err)
		return 1
	}
	if closer, ok := res.Oracle.(io.Closer); ok {
		defer closer.Close()
	}

	s, err := pipeline.New(pipeline.Settings{
		ID:         job.ID,
		Source:     job.Source,
		OutputPath: res.OutputPath,
		Evaluator:  evaluator,
		ReentryGap: cfg.ReentryGap,
	}, pipeline.Deps{
		Frames:    res.Frames,
		Oracle:    res.Oracle,
		Video:     res.Video,
		Evidence:  stores.Evidence,
		Audit:     stores.Audit,
		Annotator: video.NewAnnotator(),
		Publisher: progress{every: int(res.Frames.FPS())},
		Logger:    logger,
	})
	if err != nil {
		res.Frames.Close()
		res.Video.Close()
		logger.Error("Failed to create session: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := s.Run(ctx)

	summary, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(summary))
	if result.State != pipeline.SessionComplete {
		fmt.Fprintf(os.Stderr, "session %s: %v\n", result.State, result.Err)
		return 1
	}
	return 0
}
