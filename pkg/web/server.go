// Package web serves a live dashboard for a capture session: the annotated
// preview stream, per-frame status and a stop button.
package web

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/capture"
	"github.com/teslashibe/go-signcapture/pkg/hub"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
	"github.com/teslashibe/go-signcapture/pkg/preview"
)

const (
	maxEvents = 200

	// evictEvents is how many of the oldest events are dropped at once when
	// the log is full.
	evictEvents = maxEvents / 10
)

// Event is a dashboard log line
type Event struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, warn, error
	Message string `json:"message"`
}

// Server is the web dashboard server. It implements capture.Previewer.
type Server struct {
	app   *fiber.App
	port  string
	style preview.Style

	status   capture.Status
	statusMu sync.RWMutex

	events   []Event
	eventsMu sync.RWMutex

	statusHub *hub.Hub
	cameraHub *hub.Hub

	stopRequested atomic.Bool
}

// NewServer creates a dashboard server listening on port. Frames pushed to
// the camera stream are drawn with style.
func NewServer(port string, style preview.Style) *Server {
	s := &Server{
		port:      port,
		style:     style,
		events:    make([]Event, 0, maxEvents),
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "signcap dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/stop", s.handleStop)
	api.Get("/events", s.handleEvents)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	log.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server stopped", "err", err)
		}
	}()
}

// Show implements capture.Previewer. Frames are rendered only while a
// camera client is connected. The returned flag reports a stop request
// from the dashboard.
func (s *Server) Show(frame []byte, res *landmark.Result) (bool, error) {
	if s.cameraHub.ClientCount() > 0 {
		annotated, err := preview.RenderJPEG(frame, res, s.style)
		if err != nil {
			return false, err
		}
		s.cameraHub.BroadcastFrame(annotated)
	}
	return s.stopRequested.Load(), nil
}

// UpdateStatus records the latest loop status and broadcasts it. It has
// the signature of capture.Config.OnFrame.
func (s *Server) UpdateStatus(st capture.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastStatus(st); err != nil {
		log.Warn("broadcast status", "err", err)
	}
}

// Status returns the latest loop status.
func (s *Server) Status() capture.Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// RequestStop asks the capture loop to stop after the current frame.
func (s *Server) RequestStop() {
	if !s.stopRequested.Swap(true) {
		s.AddEvent("info", "stop requested")
	}
}

// AddEvent appends a dashboard log line
func (s *Server) AddEvent(kind, message string) {
	entry := Event{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.eventsMu.Lock()
	if len(s.events) >= maxEvents {
		n := copy(s.events, s.events[evictEvents:])
		s.events = s.events[:n]
	}
	s.events = append(s.events, entry)
	s.eventsMu.Unlock()
}

// Shutdown stops the hubs and the HTTP server
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}
