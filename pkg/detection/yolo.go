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

// cocoKeypoints is the number of keypoints YOLOv8-pose predicts.
const cocoKeypoints = 17

// cocoToPose maps COCO keypoint order onto MediaPipe pose indices.
var cocoToPose = [cocoKeypoints]int{
	0,  // nose
	2,  // left eye
	5,  // right eye
	7,  // left ear
	8,  // right ear
	11, // left shoulder
	12, // right shoulder
	13, // left elbow
	14, // right elbow
	15, // left wrist
	16, // right wrist
	23, // left hip
	24, // right hip
	25, // left knee
	26, // right knee
	27, // left ankle
	28, // right ankle
}

// YOLOPoseDetector uses YOLOv8-pose to fill the pose region.
type YOLOPoseDetector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
	closed    bool
}

// NewYOLOPose creates a YOLOv8-pose body landmark detector.
func NewYOLOPose(cfg Config) (*YOLOPoseDetector, error) {
	if _, err := os.Stat(cfg.PoseModel); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.PoseModel)
	}

	net := gocv.ReadNetFromONNX(cfg.PoseModel)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.PoseModel)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLOPoseDetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.PoseInputSize, cfg.PoseInputSize),
	}, nil
}

// Detect returns the pose landmarks of the best person in the frame.
func (d *YOLOPoseDetector) Detect(jpeg []byte) (*landmark.Result, error) {
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

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output shape: [1, 56, N] - 4 bbox + 1 score + 17 * (x, y, conf)
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("detection: unexpected YOLO output shape %v", sizes)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("detection: read YOLO output: %w", err)
	}

	people := decodePoseOutput(data, sizes[1], sizes[2], float32(d.config.PoseInputSize), float32(d.config.MinDetectionConfidence))
	res := &landmark.Result{}
	if len(people) == 0 {
		return res, nil
	}

	rects := make([]image.Rectangle, len(people))
	scores := make([]float32, len(people))
	for i, p := range people {
		rects[i] = p.rect(d.config.PoseInputSize)
		scores[i] = float32(p.box.Confidence)
	}
	keep := gocv.NMSBoxes(rects, scores, float32(d.config.MinDetectionConfidence), d.config.NMSThresh)

	boxes := make([]Box, len(keep))
	for i, idx := range keep {
		boxes[i] = people[idx].box
	}
	best := SelectBest(boxes)
	if best < 0 {
		return res, nil
	}

	res.Pose = people[keep[best]].landmarks(d.config.MinTrackingConfidence)
	log.Debug("yolo pose", "candidates", len(people), "people", len(keep), "confidence", boxes[best].Confidence)
	return res, nil
}

// Close releases the detector resources
func (d *YOLOPoseDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

// personCandidate is one decoded YOLO anchor, in normalized coordinates.
type personCandidate struct {
	box       Box
	keypoints [cocoKeypoints]struct{ x, y, conf float64 }
}

func (p personCandidate) rect(size int) image.Rectangle {
	s := float64(size)
	return image.Rect(
		int(p.box.X*s),
		int(p.box.Y*s),
		int((p.box.X+p.box.W)*s),
		int((p.box.Y+p.box.H)*s),
	)
}

// landmarks places the COCO keypoints at their MediaPipe pose indices.
// Keypoints below minConf are left out.
func (p personCandidate) landmarks(minConf float64) []landmark.Point {
	pts := make(map[int]landmark.Point, cocoKeypoints)
	for i, kp := range p.keypoints {
		if kp.conf < minConf {
			continue
		}
		pts[cocoToPose[i]] = landmark.Point{X: kp.x, Y: kp.y}
	}
	return sparse(PoseLandmarks, pts)
}

// decodePoseOutput parses a channel-major YOLOv8-pose tensor of shape
// [channels, anchors]. Coordinates are divided by the model input size,
// which normalizes them because the blob stretches the frame to a square.
func decodePoseOutput(data []float32, channels, anchors int, inputSize, minScore float32) []personCandidate {
	if channels < 5+3*cocoKeypoints || len(data) < channels*anchors {
		return nil
	}

	at := func(c, i int) float64 {
		return float64(data[c*anchors+i] / inputSize)
	}

	var people []personCandidate
	for i := 0; i < anchors; i++ {
		score := data[4*anchors+i]
		if score < minScore {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		p := personCandidate{
			box: Box{X: cx - w/2, Y: cy - h/2, W: w, H: h, Confidence: float64(score)},
		}
		for k := 0; k < cocoKeypoints; k++ {
			base := 5 + 3*k
			p.keypoints[k].x = at(base, i)
			p.keypoints[k].y = at(base+1, i)
			p.keypoints[k].conf = float64(data[(base+2)*anchors+i])
		}
		people = append(people, p)
	}
	return people
}
