// signcap records sign-language landmarks from a camera into a Parquet file
// laid out like the reference landmark files it is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-signcapture/internal/config"
	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/camera"
	"github.com/teslashibe/go-signcapture/pkg/capture"
	"github.com/teslashibe/go-signcapture/pkg/detection"
	"github.com/teslashibe/go-signcapture/pkg/detection/backend"
	"github.com/teslashibe/go-signcapture/pkg/models"
	"github.com/teslashibe/go-signcapture/pkg/preview"
	"github.com/teslashibe/go-signcapture/pkg/store"
	"github.com/teslashibe/go-signcapture/pkg/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		if config.IsConfigError(err) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "signcap: %v\n", err)
		return 1
	}
	log.Init(cfg.LogLevel)

	schema, err := store.ReadSchema(cfg.SchemaPath)
	if err != nil {
		log.Error("load reference schema", "path", cfg.SchemaPath, "err", err)
		return 1
	}

	if cfg.FetchModels && backend.NeedsModels(cfg.Detector) {
		if err := fetchModels(cfg); err != nil {
			log.Error("fetch models", "err", err)
			return 1
		}
	}

	src, err := openSource(cfg)
	if err != nil {
		log.Error("open camera", "err", err)
		return 1
	}

	det, err := detection.New(cfg.Detector, detectorConfig(cfg))
	if err != nil {
		src.Close()
		log.Error("create detector", "backend", cfg.Detector, "err", err)
		return 1
	}
	defer det.Close()

	style := preview.DefaultStyle()
	style.Mirror = cfg.Mirror

	var previewers []capture.Previewer
	if cfg.Window {
		win := preview.NewWindow("signcap", style)
		defer win.Close()
		previewers = append(previewers, win)
	}

	loopCfg := capture.Config{
		Source:    src,
		Detector:  det,
		Schema:    schema,
		MaxFrames: cfg.MaxFrames,
	}

	var dash *web.Server
	if cfg.WebPort != "" {
		dash = web.NewServer(cfg.WebPort, style)
		dash.StartAsync()
		defer dash.Shutdown()
		previewers = append(previewers, dash)
		loopCfg.OnFrame = dash.UpdateStatus
	}
	loopCfg.Previewer = capture.Tee(previewers...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("capturing",
		"source", src.Name(),
		"detector", cfg.Detector,
		"schema_rows", schema.Len(),
		"schema_regions", schema.RegionCounts(),
		"output", cfg.OutputPath)

	sess, loopErr := capture.Run(ctx, loopCfg)
	if sess == nil {
		log.Error("capture did not start", "err", loopErr)
		return 1
	}
	if dash != nil && loopErr != nil {
		dash.AddEvent("error", loopErr.Error())
	}

	// Whatever was recorded is written, even after a failure.
	meta := store.Meta{
		SessionID:  sess.ID,
		StopReason: string(sess.Reason),
		Frames:     sess.Frames,
		Skipped:    sess.Skipped,
	}
	if err := store.WriteVideo(cfg.OutputPath, sess.Video(), meta); err != nil {
		log.Error("write landmarks", "path", cfg.OutputPath, "err", err)
		return 1
	}

	if loopErr != nil {
		if le, ok := capture.AsLoopError(loopErr); ok {
			log.Error("capture ended on error", "frame", le.Frame, "stage", le.Stage, "err", le.Err)
		}
		return 1
	}
	return 0
}

// loadConfig layers defaults, .env, SIGNCAP_* variables and flags.
func loadConfig() (config.Config, error) {
	cfg := config.DefaultConfig()

	envFile := ".env"
	for i, arg := range os.Args[1:] {
		if v, ok := strings.CutPrefix(arg, "-env-file="); ok {
			envFile = v
		} else if arg == "-env-file" && i+2 < len(os.Args) {
			envFile = os.Args[i+2]
		}
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg.LoadEnv()

	flag.String("env-file", envFile, "Dotenv file with SIGNCAP_* settings")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "Reference landmark Parquet file")
	flag.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output Parquet file")
	flag.IntVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "Camera device id")
	flag.StringVar(&cfg.CameraPreset, "preset", cfg.CameraPreset, "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	flag.StringVar(&cfg.VideoFile, "video", cfg.VideoFile, "Read frames from a video file instead of a camera")
	flag.StringVar(&cfg.Detector, "detector", cfg.Detector, "Landmark backend: "+strings.Join(backend.Names, ", "))
	flag.StringVar(&cfg.DetectorURL, "detector-url", cfg.DetectorURL, "Holistic landmark service URL (remote backend)")
	flag.StringVar(&cfg.FaceModel, "face-model", cfg.FaceModel, "YuNet ONNX model")
	flag.StringVar(&cfg.PoseModel, "pose-model", cfg.PoseModel, "YOLOv8-pose ONNX model")
	flag.StringVar(&cfg.PoseModelURL, "pose-model-url", cfg.PoseModelURL, "Download source for the pose model")
	flag.BoolVar(&cfg.FetchModels, "fetch-models", cfg.FetchModels, "Download missing detector models first")
	flag.Float64Var(&cfg.MinDetectionConfidence, "min-detection-confidence", cfg.MinDetectionConfidence, "Minimum detection confidence (0-1)")
	flag.Float64Var(&cfg.MinTrackingConfidence, "min-tracking-confidence", cfg.MinTrackingConfidence, "Minimum tracking confidence (0-1)")
	flag.BoolVar(&cfg.Window, "window", cfg.Window, "Show the OpenCV preview window (escape stops)")
	flag.BoolVar(&cfg.Mirror, "mirror", cfg.Mirror, "Mirror the preview")
	flag.StringVar(&cfg.WebPort, "web-port", cfg.WebPort, "Serve the dashboard on this port (empty disables)")
	flag.IntVar(&cfg.MaxFrames, "max-frames", cfg.MaxFrames, "Stop after this many frames (0 = unlimited)")
	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}
	if camera.GetPreset(cfg.CameraPreset) == nil {
		return cfg, &config.ConfigError{Field: "CameraPreset", Message: "unknown camera preset " + cfg.CameraPreset}
	}
	return cfg, cfg.Validate()
}

// fetchModels downloads the model files the selected backend needs.
func fetchModels(cfg config.Config) error {
	face := models.Model{Name: "yunet", URL: models.YuNetURL, Path: cfg.FaceModel}
	pose := models.Model{Name: "yolo-pose", URL: cfg.PoseModelURL, Path: cfg.PoseModel}

	var need []models.Model
	switch cfg.Detector {
	case backend.Local:
		need = []models.Model{face, pose}
	case backend.YuNet:
		need = []models.Model{face}
	case backend.YOLOPose:
		need = []models.Model{pose}
	}

	_, err := models.NewFetcher().Ensure(context.Background(), need...)
	return err
}

func openSource(cfg config.Config) (*camera.Source, error) {
	camCfg := *camera.GetPreset(cfg.CameraPreset)
	if cfg.VideoFile != "" {
		return camera.OpenFile(cfg.VideoFile, camCfg)
	}
	return camera.OpenDevice(cfg.CameraDevice, camCfg)
}

func detectorConfig(cfg config.Config) detection.Config {
	dc := detection.DefaultConfig()
	dc.MinDetectionConfidence = cfg.MinDetectionConfidence
	dc.MinTrackingConfidence = cfg.MinTrackingConfidence
	dc.FaceModel = cfg.FaceModel
	dc.PoseModel = cfg.PoseModel
	dc.RemoteURL = cfg.DetectorURL
	return dc
}
