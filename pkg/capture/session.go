// Package capture runs the frame loop: read a frame, detect landmarks, turn
// them into a schema-aligned table and show a preview until the user stops,
// the source runs dry or something fails.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// State is the loop state.
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Reason records why a loop stopped.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonUserStop   Reason = "user_stop"
	ReasonExhausted  Reason = "exhausted"
	ReasonFrameLimit Reason = "frame_limit"
	ReasonError      Reason = "error"
)

// Stage names the step of an iteration that failed.
type Stage string

const (
	StageRead    Stage = "read"
	StageDetect  Stage = "detect"
	StagePreview Stage = "preview"
	StagePanic   Stage = "panic"
)

var (
	// ErrNoFrame is a soft read failure: the source is alive but had no
	// image this time. The loop skips the frame and reads again.
	ErrNoFrame = errors.New("capture: empty frame")

	ErrNoSource   = errors.New("capture: no frame source")
	ErrNoDetector = errors.New("capture: no detector")
	ErrNoSchema   = errors.New("capture: no landmark schema")
)

// LoopError is a hard failure that ended the loop. The Session returned
// alongside it still holds every frame recorded before the failure.
type LoopError struct {
	Frame int
	Stage Stage
	Err   error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("capture: frame %d: %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *LoopError) Unwrap() error {
	return e.Err
}

// AsLoopError returns the LoopError carried by err, if any.
func AsLoopError(err error) (*LoopError, bool) {
	var le *LoopError
	ok := errors.As(err, &le)
	return le, ok
}

// Session is the outcome of one capture run.
type Session struct {
	ID        string
	State     State
	Reason    Reason
	StartedAt time.Time
	EndedAt   time.Time

	Frames   int // iterations attempted, including skipped ones
	Recorded int
	Skipped  int

	tables []landmark.FrameTable
}

func newSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		State:     Running,
		StartedAt: time.Now(),
	}
}

func (s *Session) record(t landmark.FrameTable) {
	s.tables = append(s.tables, t)
	s.Recorded++
}

func (s *Session) stop(reason Reason) {
	s.State = Stopped
	s.Reason = reason
	s.EndedAt = time.Now()
}

// Tables returns the per-frame tables in capture order.
func (s *Session) Tables() []landmark.FrameTable {
	return s.tables
}

// Video concatenates every recorded frame table.
func (s *Session) Video() landmark.VideoTable {
	return landmark.Concat(s.tables...)
}

// Duration is the wall time of the run, or the time so far while running.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Status is a per-frame snapshot passed to Config.OnFrame.
type Status struct {
	SessionID string `json:"session_id"`
	Frame     int    `json:"frame"`
	Recorded  int    `json:"recorded"`
	Skipped   int    `json:"skipped"`
	State     string `json:"state"`
	Reason    Reason `json:"reason,omitempty"`

	// Regions maps each region to the number of points the detector found
	// in the latest frame.
	Regions map[landmark.Region]int `json:"regions,omitempty"`
}

func (s *Session) status(frame int, res *landmark.Result) Status {
	st := Status{
		SessionID: s.ID,
		Frame:     frame,
		Recorded:  s.Recorded,
		Skipped:   s.Skipped,
		State:     s.State.String(),
		Reason:    s.Reason,
	}
	if res != nil {
		st.Regions = make(map[landmark.Region]int, len(landmark.Regions))
		for _, r := range landmark.Regions {
			st.Regions[r] = len(res.Points(r))
		}
	}
	return st
}
