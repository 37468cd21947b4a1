package detection

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// sessionConfig is the first message sent to the landmark service.
type sessionConfig struct {
	Type                   string  `json:"type"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
}

// remoteReply is the service's answer to one frame. Regions the service
// found nothing for are null.
type remoteReply struct {
	landmark.Result
	Error string `json:"error,omitempty"`
}

// RemoteDetector streams JPEG frames to a holistic landmark service over a
// websocket and reads back one JSON result per frame.
type RemoteDetector struct {
	url    string
	config Config
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// NewRemote connects to the landmark service and sends the session config.
func NewRemote(cfg Config) (*RemoteDetector, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.Dial(cfg.RemoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotConnected, cfg.RemoteURL, err)
	}

	d := &RemoteDetector{url: cfg.RemoteURL, config: cfg, ws: ws}

	hello := sessionConfig{
		Type:                   "config",
		MinDetectionConfidence: cfg.MinDetectionConfidence,
		MinTrackingConfidence:  cfg.MinTrackingConfidence,
	}
	ws.SetWriteDeadline(time.Now().Add(d.timeout()))
	if err := ws.WriteJSON(hello); err != nil {
		ws.Close()
		return nil, fmt.Errorf("%w: send config: %v", ErrNotConnected, err)
	}

	log.Info("landmark service connected", "url", cfg.RemoteURL)
	return d, nil
}

func (d *RemoteDetector) timeout() time.Duration {
	if d.config.Timeout > 0 {
		return d.config.Timeout
	}
	return 5 * time.Second
}

// Detect sends one frame and waits for its landmarks.
func (d *RemoteDetector) Detect(jpeg []byte) (*landmark.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	deadline := time.Now().Add(d.timeout())
	d.ws.SetWriteDeadline(deadline)
	if err := d.ws.WriteMessage(websocket.BinaryMessage, jpeg); err != nil {
		return nil, fmt.Errorf("detection: send frame: %w", err)
	}

	d.ws.SetReadDeadline(deadline)
	msgType, data, err := d.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("detection: read landmarks: %w", err)
	}
	if msgType != websocket.TextMessage {
		return nil, fmt.Errorf("detection: unexpected message type %d", msgType)
	}

	var reply remoteReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("detection: decode landmarks: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("detection: service error: %s", reply.Error)
	}

	res := reply.Result
	return &res, nil
}

// Close says goodbye to the service and closes the connection.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	d.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return d.ws.Close()
}
