package detection

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeService answers every binary frame with the reply produced by respond.
func fakeService(t *testing.T, respond func(frame []byte) string) (*httptest.Server, chan sessionConfig) {
	t.Helper()
	configs := make(chan sessionConfig, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var cfg sessionConfig
		if err := conn.ReadJSON(&cfg); err != nil {
			return
		}
		configs <- cfg

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(respond(data))); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, configs
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRemote_Detect(t *testing.T) {
	srv, configs := fakeService(t, func(frame []byte) string {
		if string(frame) != "frame-1" {
			return `{"error":"unexpected frame"}`
		}
		return `{
			"face": null,
			"pose": [{"x":0.1,"y":0.2,"z":0.3},{"x":0.4,"y":0.5,"z":0.6}],
			"left_hand": [],
			"right_hand": [{"x":1,"y":2,"z":3}]
		}`
	})

	cfg := DefaultConfig()
	cfg.RemoteURL = wsURL(srv)
	cfg.MinTrackingConfidence = 0.7

	d, err := NewRemote(cfg)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer d.Close()

	select {
	case got := <-configs:
		if got.Type != "config" || got.MinDetectionConfidence != 0.5 || got.MinTrackingConfidence != 0.7 {
			t.Errorf("session config: got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service never received the session config")
	}

	res, err := d.Detect([]byte("frame-1"))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Face != nil {
		t.Errorf("null face should stay absent, got %v", res.Face)
	}
	if len(res.Pose) != 2 || res.Pose[1].Z != 0.6 {
		t.Errorf("pose: got %v", res.Pose)
	}
	if res.LeftHand == nil || len(res.LeftHand) != 0 {
		t.Errorf("empty left hand should decode to an empty slice, got %v", res.LeftHand)
	}
	if len(res.RightHand) != 1 || res.RightHand[0].Y != 2 {
		t.Errorf("right hand: got %v", res.RightHand)
	}
}

func TestRemote_ServiceError(t *testing.T) {
	srv, _ := fakeService(t, func([]byte) string {
		return `{"error":"model not loaded"}`
	})

	cfg := DefaultConfig()
	cfg.RemoteURL = wsURL(srv)
	d, err := NewRemote(cfg)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer d.Close()

	_, err = d.Detect([]byte("frame"))
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestRemote_BadPayload(t *testing.T) {
	srv, _ := fakeService(t, func([]byte) string { return `{"pose": "nope"}` })

	cfg := DefaultConfig()
	cfg.RemoteURL = wsURL(srv)
	d, err := NewRemote(cfg)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer d.Close()

	var typeErr *json.UnmarshalTypeError
	if _, err := d.Detect([]byte("frame")); !errors.As(err, &typeErr) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestRemote_ConnectFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoteURL = "ws://127.0.0.1:1/landmarks"

	if _, err := NewRemote(cfg); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestRemote_DetectAfterClose(t *testing.T) {
	srv, _ := fakeService(t, func([]byte) string { return `{}` })

	cfg := DefaultConfig()
	cfg.RemoteURL = wsURL(srv)
	d, err := NewRemote(cfg)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := d.Detect([]byte("frame")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
