// Package detection turns camera frames into per-region landmark results
// using OpenCV DNN models or a remote holistic landmark service.
package detection

import (
	"errors"
	"math"
	"time"

	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Landmark counts per region, matching the MediaPipe holistic topology the
// reference schemas are built from.
const (
	FaceLandmarks = 468
	PoseLandmarks = 33
	HandLandmarks = 21
)

// Sentinel errors for the detection package.
var (
	// ErrModelNotFound is returned when a model file does not exist.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrModelLoad is returned when OpenCV cannot load a model.
	ErrModelLoad = errors.New("detection: failed to load model")

	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrNotConnected is returned when the remote service is not reachable.
	ErrNotConnected = errors.New("detection: not connected")

	// ErrClosed is returned when using a closed detector.
	ErrClosed = errors.New("detection: detector closed")
)

// Detector is the interface for landmark detection backends.
type Detector interface {
	// Detect finds landmarks in a JPEG frame. Regions the backend does not
	// cover, or did not find, are left nil in the result.
	Detect(jpeg []byte) (*landmark.Result, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	// Confidence thresholds (0-1). Local backends drop detections below
	// MinDetectionConfidence and keypoints below MinTrackingConfidence;
	// the remote backend forwards both to the service.
	MinDetectionConfidence float64
	MinTrackingConfidence  float64

	FaceModel string // YuNet ONNX model
	PoseModel string // YOLOv8-pose ONNX model

	FaceInputWidth  int // YuNet initial input size
	FaceInputHeight int
	PoseInputSize   int     // YOLO square input size
	NMSThresh       float32 // YOLO non-max suppression threshold

	RemoteURL string        // ws:// endpoint of the holistic service
	Timeout   time.Duration // Per-frame round trip limit for the remote backend
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		FaceModel:              "models/face_detection_yunet.onnx",
		PoseModel:              "models/yolov8n-pose.onnx",
		FaceInputWidth:         320,
		FaceInputHeight:        320,
		PoseInputSize:          640,
		NMSThresh:              0.45,
		RemoteURL:              "ws://127.0.0.1:8765/landmarks",
		Timeout:                5 * time.Second,
	}
}

// Box is a detected object's bounding box in normalized (0-1) image
// coordinates.
type Box struct {
	X, Y       float64 // Top-left corner
	W, H       float64 // Width and height
	Confidence float64 // Detection confidence (0-1)
}

// Area returns the area of the bounding box
func (b Box) Area() float64 {
	return b.W * b.H
}

// SelectBest picks the subject to record when a frame has several
// candidates. Priority: confidence * 0.7 + relative area * 0.3.
func SelectBest(boxes []Box) int {
	if len(boxes) == 0 {
		return -1
	}
	if len(boxes) == 1 {
		return 0
	}

	maxArea := 0.0
	for _, b := range boxes {
		if b.Area() > maxArea {
			maxArea = b.Area()
		}
	}

	best, bestScore := -1, -1.0
	for i, b := range boxes {
		score := b.Confidence * 0.7
		if maxArea > 0 {
			score += (b.Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// sparse builds a region of n points where only the given indices carry
// coordinates; every other point is NaN and ends up null in the output.
func sparse(n int, pts map[int]landmark.Point) []landmark.Point {
	nan := math.NaN()
	out := make([]landmark.Point, n)
	for i := range out {
		if p, ok := pts[i]; ok {
			out[i] = p
			continue
		}
		out[i] = landmark.Point{X: nan, Y: nan, Z: nan}
	}
	return out
}
