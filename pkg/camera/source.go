package camera

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/capture"
	"gocv.io/x/gocv"
)

// Sentinel errors for the camera package.
var (
	// ErrNoFrame is a soft failure: the device is open but delivered no
	// image this time. It is the frame loop's skip sentinel.
	ErrNoFrame = capture.ErrNoFrame

	// ErrNotOpened is returned when a device or file cannot be opened.
	ErrNotOpened = errors.New("camera: capture not opened")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("camera: source closed")

	// ErrInvalidConfig is returned when the config fails validation.
	ErrInvalidConfig = errors.New("camera: invalid config")
)

// Source reads frames from a capture device or a video file.
//
// Read returns io.EOF once the stream is exhausted: for files that is the
// first failed read, for devices it is the device reporting closed.
type Source struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	config  Config
	name    string
	live    bool

	mu     sync.Mutex
	closed bool
}

// OpenDevice opens a system capture device (0 is the default camera).
func OpenDevice(id int, cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	vc, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrNotOpened, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d", ErrNotOpened, id)
	}

	s := newSource(vc, cfg, fmt.Sprintf("device:%d", id), true)
	s.apply()
	return s, nil
}

// OpenFile opens a video file. Reaching the end of the file ends the stream.
func OpenFile(path string, cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotOpened, path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotOpened, path)
	}

	return newSource(vc, cfg, "file:"+path, false), nil
}

func newSource(vc *gocv.VideoCapture, cfg Config, name string, live bool) *Source {
	return &Source{
		capture: vc,
		frame:   gocv.NewMat(),
		config:  cfg,
		name:    name,
		live:    live,
	}
}

// apply pushes the requested resolution and framerate to the device.
func (s *Source) apply() {
	if s.config.Width > 0 {
		s.capture.Set(gocv.VideoCaptureFrameWidth, float64(s.config.Width))
	}
	if s.config.Height > 0 {
		s.capture.Set(gocv.VideoCaptureFrameHeight, float64(s.config.Height))
	}
	if s.config.Framerate > 0 {
		s.capture.Set(gocv.VideoCaptureFPS, float64(s.config.Framerate))
	}
	log.Debug("camera configured",
		"source", s.name,
		"width", s.capture.Get(gocv.VideoCaptureFrameWidth),
		"height", s.capture.Get(gocv.VideoCaptureFrameHeight),
		"fps", s.capture.Get(gocv.VideoCaptureFPS))
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return s.name
}

// Read grabs the next frame and returns it JPEG-encoded.
func (s *Source) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if !s.capture.IsOpened() {
		return nil, io.EOF
	}

	if ok := s.capture.Read(&s.frame); !ok {
		if s.live {
			return nil, ErrNoFrame
		}
		return nil, io.EOF
	}
	if s.frame.Empty() {
		return nil, ErrNoFrame
	}

	return EncodeJPEG(s.frame, s.config.Quality)
}

// Close releases the capture handle. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.frame.Close()
	if err := s.capture.Close(); err != nil {
		return fmt.Errorf("camera: close %s: %w", s.name, err)
	}
	log.Debug("camera released", "source", s.name)
	return nil
}

// EncodeJPEG encodes a Mat as JPEG. The returned slice is owned by the
// caller.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
