package web

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-signcapture/pkg/hub"
)

//go:embed static/index.html
var indexHTML string

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(indexHTML)
}

// handleStatus returns the latest loop status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleStop asks the capture loop to stop
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.RequestStop()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"stopping": true,
	})
}

// handleEvents returns recent dashboard events
func (s *Server) handleEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleStatusWS streams status updates, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	msg, err := hub.StatusMessage(s.Status())
	if err != nil {
		hub.NewClient(s.statusHub, c).Run()
		return
	}
	hub.NewClient(s.statusHub, c, msg).Run()
}
