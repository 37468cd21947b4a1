package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
	"gocv.io/x/gocv"
)

// YuNet reports five facial keypoints. Each is stored at the nearest
// face-mesh vertex so it joins against holistic reference schemas.
var yunetMeshIndex = [5]int{
	159, // right eye (upper lid midpoint)
	386, // left eye (upper lid midpoint)
	1,   // nose tip
	61,  // right mouth corner
	291, // left mouth corner
}

// YuNetDetector uses OpenCV's FaceDetectorYN to fill the face region.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

// NewYuNet creates a YuNet face landmark detector.
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.FaceModel); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.FaceModel)
	}

	// Input size is updated per frame
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.FaceModel,
		"", // No config file needed for ONNX
		image.Pt(cfg.FaceInputWidth, cfg.FaceInputHeight),
		float32(cfg.MinDetectionConfidence),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect returns the face landmarks of the best face in the frame.
func (d *YuNetDetector) Detect(jpeg []byte) (*landmark.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detection: decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	boxes := make([]Box, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		boxes[r] = Box{
			X:          float64(faces.GetFloatAt(r, 0)) / imgW,
			Y:          float64(faces.GetFloatAt(r, 1)) / imgH,
			W:          float64(faces.GetFloatAt(r, 2)) / imgW,
			H:          float64(faces.GetFloatAt(r, 3)) / imgH,
			Confidence: float64(faces.GetFloatAt(r, 14)),
		}
	}

	res := &landmark.Result{}
	best := SelectBest(boxes)
	if best < 0 {
		return res, nil
	}

	pts := make(map[int]landmark.Point, len(yunetMeshIndex))
	for i, meshIdx := range yunetMeshIndex {
		pts[meshIdx] = landmark.Point{
			X: float64(faces.GetFloatAt(best, 4+2*i)) / imgW,
			Y: float64(faces.GetFloatAt(best, 5+2*i)) / imgH,
		}
	}
	res.Face = sparse(FaceLandmarks, pts)

	log.Debug("yunet face", "faces", len(boxes), "confidence", boxes[best].Confidence)
	return res, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
