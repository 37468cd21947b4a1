package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-signcapture/pkg/detection/backend"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name   string
		boxes  []Box
		expect int
	}{
		{
			name:   "empty list",
			boxes:  nil,
			expect: -1,
		},
		{
			name:   "single box",
			boxes:  []Box{{X: 0.4, Y: 0.4, W: 0.2, H: 0.2, Confidence: 0.9}},
			expect: 0,
		},
		{
			name: "high confidence beats larger area",
			boxes: []Box{
				{X: 0.0, Y: 0.0, W: 0.4, H: 0.4, Confidence: 0.5},
				{X: 0.3, Y: 0.3, W: 0.2, H: 0.2, Confidence: 0.95},
			},
			expect: 1, // 0.95*0.7 + 0.25*0.3 = 0.74 vs 0.5*0.7 + 1.0*0.3 = 0.65
		},
		{
			name: "similar confidence picks larger",
			boxes: []Box{
				{X: 0.0, Y: 0.0, W: 0.5, H: 0.5, Confidence: 0.8},
				{X: 0.3, Y: 0.3, W: 0.1, H: 0.1, Confidence: 0.8},
			},
			expect: 0,
		},
		{
			name: "zero area boxes",
			boxes: []Box{
				{Confidence: 0.3},
				{Confidence: 0.6},
			},
			expect: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectBest(tc.boxes); got != tc.expect {
				t.Errorf("SelectBest: got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FaceModel == "" || cfg.PoseModel == "" {
		t.Error("DefaultConfig: model paths should not be empty")
	}
	if cfg.MinDetectionConfidence != 0.5 || cfg.MinTrackingConfidence != 0.5 {
		t.Errorf("DefaultConfig: confidences got %v/%v, want 0.5/0.5",
			cfg.MinDetectionConfidence, cfg.MinTrackingConfidence)
	}
	if cfg.PoseInputSize <= 0 || cfg.FaceInputWidth <= 0 || cfg.FaceInputHeight <= 0 {
		t.Error("DefaultConfig: input sizes should be positive")
	}
	if cfg.Timeout <= 0 {
		t.Error("DefaultConfig: timeout should be positive")
	}
}

func TestSparse(t *testing.T) {
	pts := sparse(4, map[int]landmark.Point{2: {X: 1, Y: 2}})

	if len(pts) != 4 {
		t.Fatalf("len: got %d, want 4", len(pts))
	}
	if pts[2].X != 1 || pts[2].Y != 2 || pts[2].Z != 0 {
		t.Errorf("index 2: got %+v", pts[2])
	}
	for _, i := range []int{0, 1, 3} {
		if !math.IsNaN(pts[i].X) {
			t.Errorf("index %d should be NaN, got %+v", i, pts[i])
		}
	}
}

func TestComposite_MergesInPriorityOrder(t *testing.T) {
	face := NewMock(&landmark.Result{Face: []landmark.Point{{X: 1}}})
	body := NewMock(&landmark.Result{
		Face: []landmark.Point{{X: 99}},
		Pose: []landmark.Point{{X: 2}},
	})
	c := NewComposite(face, body)

	res, err := c.Detect([]byte("jpeg"))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Face[0].X != 1 {
		t.Errorf("face should come from the first backend, got %v", res.Face)
	}
	if len(res.Pose) != 1 || res.Pose[0].X != 2 {
		t.Errorf("pose should come from the second backend, got %v", res.Pose)
	}
	if res.LeftHand != nil || res.RightHand != nil {
		t.Error("hands should stay absent")
	}
}

func TestComposite_Errors(t *testing.T) {
	boom := errors.New("boom")
	failing := &Mock{
		DetectFunc: func([]byte) (*landmark.Result, error) { return nil, boom },
		CloseFunc:  func() error { return boom },
	}
	ok := NewMock(&landmark.Result{})
	c := NewComposite(ok, failing)

	if _, err := c.Detect(nil); !errors.Is(err, boom) {
		t.Errorf("Detect: expected wrapped boom, got %v", err)
	}
	if err := c.Close(); !errors.Is(err, boom) {
		t.Errorf("Close: expected wrapped boom, got %v", err)
	}
	if ok.Closed() != 1 || failing.Closed() != 1 {
		t.Error("every backend should be closed once")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New("mediapipe", DefaultConfig()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNew_MissingModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FaceModel = "/nonexistent/face.onnx"
	cfg.PoseModel = "/nonexistent/pose.onnx"

	for _, name := range backend.Names {
		if !backend.NeedsModels(name) {
			continue
		}
		if _, err := New(name, cfg); !errors.Is(err, ErrModelNotFound) {
			t.Errorf("%s: expected ErrModelNotFound, got %v", name, err)
		}
	}
}
