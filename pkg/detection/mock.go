package detection

import (
	"sync"

	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(jpeg []byte) (*landmark.Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	calls  int
	closed int
}

// NewMock returns a mock that reports the same result for every frame.
func NewMock(res *landmark.Result) *Mock {
	return &Mock{
		DetectFunc: func([]byte) (*landmark.Result, error) {
			return res, nil
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(jpeg []byte) (*landmark.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.DetectFunc != nil {
		return m.DetectFunc(jpeg)
	}
	return &landmark.Result{}, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns how many times Detect was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed returns how many times Close was called.
func (m *Mock) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
