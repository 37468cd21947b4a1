// Package config provides configuration for the signcap command.
// Values come from defaults, then the environment (optionally a .env file),
// then command line flags.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/teslashibe/go-signcapture/pkg/detection/backend"
)

// Default configuration values.
const (
	DefaultSchemaPath   = "./asl-signs/train_landmark_files/16069/10042041.parquet"
	DefaultOutputPath   = "output.parquet"
	DefaultCameraDevice = 0
	DefaultCameraPreset = "default"
	DefaultDetector     = backend.Local
	DefaultDetectorURL  = "ws://127.0.0.1:8765/landmarks"
	DefaultFaceModel    = "models/face_detection_yunet.onnx"
	DefaultPoseModel    = "models/yolov8n-pose.onnx"
	DefaultConfidence   = 0.5
)

// Config holds all configuration for a capture run.
// Flag parsing is done in cmd/signcap/main.go; this struct is data only.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// SchemaPath is the reference landmark file.
	SchemaPath string

	// OutputPath receives the recorded landmarks.
	OutputPath string

	// Camera selection. VideoFile wins over CameraDevice when set.
	CameraDevice int
	CameraPreset string // Capture resolution preset, see camera.PresetNames
	VideoFile    string

	// Detector backend and its inputs.
	Detector               string
	DetectorURL            string
	FaceModel              string
	PoseModel              string
	PoseModelURL           string // Download source for PoseModel
	FetchModels            bool   // Download missing model files before capturing
	MinDetectionConfidence float64
	MinTrackingConfidence  float64

	// Preview.
	Window  bool // Show an OpenCV preview window
	Mirror  bool // Flip the preview horizontally
	WebPort string

	// MaxFrames stops the loop after this many frames (0 = unlimited).
	MaxFrames int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		LogLevel:               "info",
		SchemaPath:             DefaultSchemaPath,
		OutputPath:             DefaultOutputPath,
		CameraDevice:           DefaultCameraDevice,
		CameraPreset:           DefaultCameraPreset,
		Detector:               DefaultDetector,
		DetectorURL:            DefaultDetectorURL,
		FaceModel:              DefaultFaceModel,
		PoseModel:              DefaultPoseModel,
		MinDetectionConfidence: DefaultConfidence,
		MinTrackingConfidence:  DefaultConfidence,
		Window:                 true,
		Mirror:                 true,
	}
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// LoadEnv applies SIGNCAP_* environment variables on top of c.
func (c *Config) LoadEnv() {
	c.LogLevel = getEnv("SIGNCAP_LOG_LEVEL", c.LogLevel)
	c.SchemaPath = getEnv("SIGNCAP_SCHEMA", c.SchemaPath)
	c.OutputPath = getEnv("SIGNCAP_OUTPUT", c.OutputPath)
	c.CameraDevice = getEnvAsInt("SIGNCAP_CAMERA", c.CameraDevice)
	c.CameraPreset = getEnv("SIGNCAP_CAMERA_PRESET", c.CameraPreset)
	c.VideoFile = getEnv("SIGNCAP_VIDEO", c.VideoFile)
	c.Detector = getEnv("SIGNCAP_DETECTOR", c.Detector)
	c.DetectorURL = getEnv("SIGNCAP_DETECTOR_URL", c.DetectorURL)
	c.FaceModel = getEnv("SIGNCAP_FACE_MODEL", c.FaceModel)
	c.PoseModel = getEnv("SIGNCAP_POSE_MODEL", c.PoseModel)
	c.PoseModelURL = getEnv("SIGNCAP_POSE_MODEL_URL", c.PoseModelURL)
	c.FetchModels = getEnvAsBool("SIGNCAP_FETCH_MODELS", c.FetchModels)
	c.MinDetectionConfidence = getEnvAsFloat("SIGNCAP_MIN_DETECTION_CONFIDENCE", c.MinDetectionConfidence)
	c.MinTrackingConfidence = getEnvAsFloat("SIGNCAP_MIN_TRACKING_CONFIDENCE", c.MinTrackingConfidence)
	c.Window = getEnvAsBool("SIGNCAP_WINDOW", c.Window)
	c.Mirror = getEnvAsBool("SIGNCAP_MIRROR", c.Mirror)
	c.WebPort = getEnv("SIGNCAP_WEB_PORT", c.WebPort)
	c.MaxFrames = getEnvAsInt("SIGNCAP_MAX_FRAMES", c.MaxFrames)
}

// Validate checks the configuration for values the run cannot work with.
func (c *Config) Validate() error {
	if c.SchemaPath == "" {
		return &ConfigError{Field: "SchemaPath", Message: "a reference schema file is required"}
	}
	if c.OutputPath == "" {
		return &ConfigError{Field: "OutputPath", Message: "an output path is required"}
	}
	if c.VideoFile == "" && c.CameraDevice < 0 {
		return &ConfigError{Field: "CameraDevice", Message: "camera device must be >= 0"}
	}
	if !backend.Valid(c.Detector) {
		return &ConfigError{Field: "Detector", Message: "detector must be one of " + strings.Join(backend.Names, ", ")}
	}
	if c.Detector == backend.Remote && c.DetectorURL == "" {
		return &ConfigError{Field: "DetectorURL", Message: "remote detector needs SIGNCAP_DETECTOR_URL"}
	}
	if c.MinDetectionConfidence < 0 || c.MinDetectionConfidence > 1 {
		return &ConfigError{Field: "MinDetectionConfidence", Message: "min detection confidence must be between 0 and 1"}
	}
	if c.MinTrackingConfidence < 0 || c.MinTrackingConfidence > 1 {
		return &ConfigError{Field: "MinTrackingConfidence", Message: "min tracking confidence must be between 0 and 1"}
	}
	if c.MaxFrames < 0 {
		return &ConfigError{Field: "MaxFrames", Message: "max frames must be >= 0"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// IsConfigError reports whether err is a validation error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
