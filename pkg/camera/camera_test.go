package camera

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-signcapture/pkg/capture"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should return nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr int
	}{
		{"device defaults", Config{Quality: 80}, 0},
		{"too narrow", Config{Width: 100, Quality: 80}, 1},
		{"too tall", Config{Height: 5000, Quality: 80}, 1},
		{"negative fps", Config{Framerate: -1, Quality: 80}, 1},
		{"quality zero", Config{}, 1},
		{"everything wrong", Config{Width: 1, Height: 1, Framerate: 500, Quality: 101}, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.cfg.Validate()
			if len(errs) != tc.wantErr {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, tc.wantErr)
			}
		})
	}
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.mp4"), DefaultConfig())
	if !errors.Is(err, ErrNotOpened) {
		t.Errorf("expected ErrNotOpened, got %v", err)
	}
}

func TestOpenDevice_InvalidConfig(t *testing.T) {
	_, err := OpenDevice(0, Config{Quality: 0})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestErrNoFrameIsLoopSkip(t *testing.T) {
	err := fmt.Errorf("read device:0: %w", ErrNoFrame)
	if !errors.Is(err, capture.ErrNoFrame) {
		t.Error("an empty camera frame must be skipped by the frame loop")
	}
}
