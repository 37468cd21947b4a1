// Package hub provides a websocket broadcast hub built on channel fan-out.
// The dashboard uses one hub per stream (preview frames, capture status).
package hub

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
)

// Kind is the dashboard stream a message belongs to.
type Kind int

const (
	// StatusKind carries a JSON capture status snapshot.
	StatusKind Kind = iota
	// FrameKind carries an annotated JPEG preview frame.
	FrameKind
)

func (k Kind) String() string {
	switch k {
	case StatusKind:
		return "status"
	case FrameKind:
		return "frame"
	}
	return "unknown"
}

// Message is a single broadcast payload
type Message struct {
	Kind Kind
	Data []byte
}

// StatusMessage encodes a status snapshot as JSON.
func StatusMessage(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: StatusKind, Data: data}, nil
}

// FrameMessage wraps an encoded preview frame. The JPEG is not copied.
func FrameMessage(jpeg []byte) Message {
	return Message{Kind: FrameKind, Data: jpeg}
}

// opcode is the websocket frame type the message is written with.
func (m Message) opcode() int {
	if m.Kind == FrameKind {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
