package detection

import (
	"fmt"

	"github.com/teslashibe/go-signcapture/pkg/detection/backend"
)

// New creates the detector for a backend name (see package backend).
func New(name string, cfg Config) (Detector, error) {
	switch name {
	case backend.YuNet:
		d, err := NewYuNet(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case backend.YOLOPose:
		d, err := NewYOLOPose(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case backend.Remote:
		d, err := NewRemote(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case backend.Local:
		face, err := NewYuNet(cfg)
		if err != nil {
			return nil, err
		}
		pose, err := NewYOLOPose(cfg)
		if err != nil {
			face.Close()
			return nil, err
		}
		return NewComposite(face, pose), nil
	default:
		return nil, fmt.Errorf("detection: unknown backend %q", name)
	}
}
