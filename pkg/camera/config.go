// Package camera opens capture devices and video files through OpenCV and
// hands frames to the capture loop as JPEG bytes.
package camera

// Config holds capture settings applied when a source is opened.
type Config struct {
	// === Resolution ===
	// Zero width or height keeps whatever the device defaults to.
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS, 0 = device default

	// Quality is the JPEG quality (1-100) used when frames are handed to
	// detectors.
	Quality int `json:"quality"`
}

// Limits for requested capture settings.
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig keeps the device's native resolution and encodes at
// quality 90.
func DefaultConfig() Config {
	return Config{
		Quality: 90,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width != 0 && (c.Width < 160 || c.Width > MaxWidth) {
		errors = append(errors, "width must be 0 (device default) or between 160 and 4096")
	}
	if c.Height != 0 && (c.Height < 120 || c.Height > MaxHeight) {
		errors = append(errors, "height must be 0 (device default) or between 120 and 2160")
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 0 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
