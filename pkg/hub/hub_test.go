package hub

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records written messages. ReadMessage blocks until Close.
type fakeConn struct {
	mu      sync.Mutex
	written []Message
	types   []int
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(t int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, t)
	if t == websocket.TextMessage || t == websocket.BinaryMessage {
		f.written = append(f.written, Message{Data: append([]byte(nil), data...)})
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	for i, m := range f.written {
		out[i] = string(m.Data)
	}
	return out
}

// dataTypes returns the websocket types of written data frames.
func (f *fakeConn) dataTypes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, t := range f.types {
		if t == websocket.TextMessage || t == websocket.BinaryMessage {
			out = append(out, t)
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	a, b := newFakeConn(), newFakeConn()
	hello, err := StatusMessage(map[string]bool{"hello": true})
	if err != nil {
		t.Fatal(err)
	}
	ca := newClient(h, a, hello)
	cb := newClient(h, b)
	go ca.Run()
	go cb.Run()

	waitFor(t, "two clients", func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastStatus(map[string]int{"frame": 1}); err != nil {
		t.Fatalf("BroadcastStatus: %v", err)
	}
	h.BroadcastFrame([]byte("jpeg"))

	waitFor(t, "client a messages", func() bool { return len(a.messages()) == 3 })
	waitFor(t, "client b messages", func() bool { return len(b.messages()) == 2 })

	got := a.messages()
	if got[0] != `{"hello":true}` || got[1] != `{"frame":1}` || got[2] != "jpeg" {
		t.Errorf("client a got %q", got)
	}
	wantTypes := []int{websocket.TextMessage, websocket.TextMessage, websocket.BinaryMessage}
	if types := a.dataTypes(); !slices.Equal(types, wantTypes) {
		t.Errorf("client a frame types = %v, want %v", types, wantTypes)
	}
}

func TestMessageKinds(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff}
	frame := FrameMessage(jpeg)
	if frame.Kind != FrameKind || frame.opcode() != websocket.BinaryMessage || &frame.Data[0] != &jpeg[0] {
		t.Errorf("FrameMessage = %+v", frame)
	}

	status, err := StatusMessage(struct {
		Frame int `json:"frame"`
	}{Frame: 3})
	if err != nil {
		t.Fatalf("StatusMessage: %v", err)
	}
	if status.Kind != StatusKind || status.opcode() != websocket.TextMessage || string(status.Data) != `{"frame":3}` {
		t.Errorf("StatusMessage = %+v (%s)", status, status.Data)
	}

	if _, err := StatusMessage(make(chan int)); err == nil {
		t.Error("StatusMessage should fail on a value json cannot encode")
	}
	if FrameKind.String() != "frame" || StatusKind.String() != "status" {
		t.Error("unexpected Kind names")
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	c := newFakeConn()
	go newClient(h, c).Run()
	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	c.Close()
	waitFor(t, "client removed", func() bool { return h.ClientCount() == 0 })
}

func TestHub_Stop(t *testing.T) {
	h := New("test")
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	waitFor(t, "hub running", h.IsRunning)

	c := newFakeConn()
	go newClient(h, c).Run()
	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	h.Stop()
	h.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if h.ClientCount() != 0 {
		t.Errorf("clients left after stop: %d", h.ClientCount())
	}

	// Registering after stop must not block.
	late := newClient(h, newFakeConn())
	if _, ok := <-late.send; ok {
		t.Error("late client send channel should be closed")
	}
}

func TestHub_BroadcastDoesNotBlock(t *testing.T) {
	h := New("idle") // Run never started

	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.BroadcastFrame([]byte{byte(i)})
	}
	if h.Dropped() != 10 {
		t.Errorf("dropped = %d, want 10", h.Dropped())
	}
}
