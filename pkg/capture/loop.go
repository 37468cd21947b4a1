package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Source yields JPEG frames. Read returns ErrNoFrame for a frame
// that should be skipped and io.EOF once no more frames will come.
type Source interface {
	Read() ([]byte, error)
	Close() error
}

// Detector turns one JPEG frame into landmarks.
type Detector interface {
	Detect(jpeg []byte) (*landmark.Result, error)
}

// Previewer displays a frame with its landmarks and reports whether the
// user asked to stop.
type Previewer interface {
	Show(jpeg []byte, res *landmark.Result) (stop bool, err error)
}

// Config wires the loop together. Source, Detector and Schema are
// required.
type Config struct {
	Source    Source
	Detector  Detector
	Previewer Previewer // optional
	Schema    *landmark.Schema

	// MaxFrames stops the loop after this many iterations. Zero means no
	// limit.
	MaxFrames int

	// OnFrame is called after every iteration, skipped frames included.
	OnFrame func(Status)
}

func (c Config) validate() error {
	switch {
	case c.Source == nil:
		return ErrNoSource
	case c.Detector == nil:
		return ErrNoDetector
	case c.Schema == nil:
		return ErrNoSchema
	case c.MaxFrames < 0:
		return fmt.Errorf("capture: max frames must be >= 0, got %d", c.MaxFrames)
	}
	return nil
}

// Run captures frames until the previewer asks to stop, ctx is cancelled,
// the source is exhausted or MaxFrames is reached. The source is closed
// before Run returns.
//
// On a hard failure Run returns the partial Session together with a
// *LoopError. The Session is nil only when cfg is invalid.
func Run(ctx context.Context, cfg Config) (sess *Session, err error) {
	if err := cfg.validate(); err != nil {
		if cfg.Source != nil {
			cfg.Source.Close()
		}
		return nil, err
	}

	sess = newSession()
	logger := log.With("session", sess.ID)

	frame := 0
	defer func() {
		if r := recover(); r != nil {
			err = &LoopError{Frame: frame, Stage: StagePanic, Err: fmt.Errorf("%v", r)}
		}
		if cerr := cfg.Source.Close(); cerr != nil {
			logger.Warn("close source", "err", cerr)
		}
		if err != nil {
			sess.stop(ReasonError)
			logger.Error("capture failed", "err", err, "recorded", sess.Recorded)
			return
		}
		logger.Info("capture stopped",
			"reason", sess.Reason,
			"frames", sess.Frames,
			"recorded", sess.Recorded,
			"skipped", sess.Skipped,
			"duration", sess.Duration())
	}()

	logger.Info("capture started", "schema_rows", cfg.Schema.Len(), "max_frames", cfg.MaxFrames)

	for sess.State == Running {
		if ctx.Err() != nil {
			sess.stop(ReasonUserStop)
			break
		}
		if cfg.MaxFrames > 0 && frame >= cfg.MaxFrames {
			sess.stop(ReasonFrameLimit)
			break
		}

		frame++
		sess.Frames = frame

		res, err := step(cfg, sess, frame)
		if err != nil {
			return sess, err
		}
		if cfg.OnFrame != nil {
			cfg.OnFrame(sess.status(frame, res))
		}
	}

	return sess, nil
}

// step runs one iteration. It stops the session itself on exhaustion or a
// user stop and returns a *LoopError on hard failures.
func step(cfg Config, sess *Session, frame int) (*landmark.Result, error) {
	jpeg, err := cfg.Source.Read()
	switch {
	case errors.Is(err, ErrNoFrame):
		log.Warn("ignoring empty camera frame", "frame", frame)
		sess.Skipped++
		return nil, nil
	case errors.Is(err, io.EOF):
		sess.stop(ReasonExhausted)
		return nil, nil
	case err != nil:
		return nil, &LoopError{Frame: frame, Stage: StageRead, Err: err}
	}

	res, err := cfg.Detector.Detect(jpeg)
	if err != nil {
		return nil, &LoopError{Frame: frame, Stage: StageDetect, Err: err}
	}

	sess.record(landmark.BuildFrame(res, cfg.Schema, frame))
	log.Debug("frame recorded", "frame", frame, "points", res.Count())

	if cfg.Previewer == nil {
		return res, nil
	}
	stop, err := cfg.Previewer.Show(jpeg, res)
	if err != nil {
		return res, &LoopError{Frame: frame, Stage: StagePreview, Err: err}
	}
	if stop {
		sess.stop(ReasonUserStop)
	}
	return res, nil
}

// Tee fans Show out to several previewers. Every previewer sees each frame;
// the loop stops if any of them asks to.
func Tee(previewers ...Previewer) Previewer {
	var ps []Previewer
	for _, p := range previewers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	return tee(ps)
}

type tee []Previewer

func (t tee) Show(jpeg []byte, res *landmark.Result) (bool, error) {
	stop := false
	for _, p := range t {
		s, err := p.Show(jpeg, res)
		if err != nil {
			return false, err
		}
		stop = stop || s
	}
	return stop, nil
}
