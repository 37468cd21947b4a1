package detection

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Composite runs several detectors on each frame and merges their results.
// Earlier detectors win when two report the same region.
type Composite struct {
	detectors []Detector
}

// NewComposite combines detectors in priority order.
func NewComposite(detectors ...Detector) *Composite {
	return &Composite{detectors: detectors}
}

// Detect runs every backend. Any backend error fails the frame.
func (c *Composite) Detect(jpeg []byte) (*landmark.Result, error) {
	res := &landmark.Result{}
	for i, d := range c.detectors {
		part, err := d.Detect(jpeg)
		if err != nil {
			return nil, fmt.Errorf("detection: backend %d: %w", i, err)
		}
		res.Merge(part)
	}
	return res, nil
}

// Close closes every backend and returns their joined errors.
func (c *Composite) Close() error {
	var errs []error
	for _, d := range c.detectors {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
