package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/service/tracking"
)

// personClassID is the COCO label of "person" in the SSD MobileNet graph.
const personClassID = 1

// DetectorService runs the SSD MobileNet network. The network is shared by
// all sessions and guarded by a mutex.
type DetectorService struct {
	net        gocv.Net
	modelPath  string
	configPath string
	threshold  float64
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewDetectorService loads the detection network from the configured model/config paths.
func NewDetectorService(config *config.Config, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		threshold:  config.DetectionThreshold,
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		return nil, fmt.Errorf("failed to initialize detection network: %w", err)
	}

	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)

	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)

	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized successfully")
	return nil
}

// DetectPeople runs the DNN on a JPEG frame and returns the person boxes above
// the confidence threshold.
func (s *DetectorService) DetectPeople(imageBytes []byte) ([]tracking.Candidate, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	//Create blob with parameters that fit ssd coco net input
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	cols, rows := float32(mat.Cols()), float32(mat.Rows())
	var results []tracking.Candidate

	// Process detections with output: [ batch_id, class_id, confidence, x1, y1, x2, y2 ]
	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := float64(outputReshaped.GetFloatAt(i, 2))
		if confidence <= s.threshold {
			continue
		}
		if int(outputReshaped.GetFloatAt(i, 1)) != personClassID {
			continue
		}

		results = append(results, tracking.Candidate{
			Box: model.BoundingBox{
				X1: int(outputReshaped.GetFloatAt(i, 3) * cols),
				Y1: int(outputReshaped.GetFloatAt(i, 4) * rows),
				X2: int(outputReshaped.GetFloatAt(i, 5) * cols),
				Y2: int(outputReshaped.GetFloatAt(i, 6) * rows),
			},
			Confidence: confidence,
		})
	}

	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
