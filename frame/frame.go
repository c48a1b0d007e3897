// Package frame implements the envelope codec for the graphql-ws realtime
// protocol spoken by the BotCircuits subscription endpoint.
//
// Every WebSocket text message is one JSON envelope:
//
//	{"id": "<subscription id>", "type": "<kind>", "payload": {...}}
//
// The payload is kept raw here; the wire package owns its shapes.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// Subprotocol is the WebSocket sub-protocol token negotiated on dial.
	Subprotocol = "graphql-ws"

	// MaxFrameLen bounds a single inbound envelope.
	MaxFrameLen = 1 << 20
)

// Kind is the closed set of envelope types understood by the client.
// Anything else decodes to KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConnectionInit
	KindConnectionAck
	KindConnectionError
	KindConnectionTerminate
	KindKeepAlive
	KindStart
	KindStartAck
	KindStop
	KindData
	KindError
	KindComplete
)

var kindNames = [...]string{
	KindUnknown:             "unknown",
	KindConnectionInit:      "connection_init",
	KindConnectionAck:       "connection_ack",
	KindConnectionError:     "connection_error",
	KindConnectionTerminate: "connection_terminate",
	KindKeepAlive:           "ka",
	KindStart:               "start",
	KindStartAck:            "start_ack",
	KindStop:                "stop",
	KindData:                "data",
	KindError:               "error",
	KindComplete:            "complete",
}

// String returns the wire tag for k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a wire tag to its Kind. "subscribe" is accepted as an alias
// of "start" since newer servers use that name.
func ParseKind(tag string) Kind {
	if tag == "subscribe" {
		return KindStart
	}
	for k, name := range kindNames {
		if k != int(KindUnknown) && name == tag {
			return Kind(k)
		}
	}
	return KindUnknown
}

var (
	ErrEmptyFrame    = errors.New("frame: empty message")
	ErrMissingType   = errors.New("frame: missing type")
	ErrFrameTooLarge = errors.New("frame: message exceeds maximum size")
)

// Frame is one decoded protocol envelope.
type Frame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Kind returns the typed discriminator of f.
func (f Frame) Kind() Kind { return ParseKind(f.Type) }

// Encode serialises f. The type tag must be set.
func Encode(f Frame) ([]byte, error) {
	if f.Type == "" {
		return nil, ErrMissingType
	}
	return json.Marshal(f)
}

// Decode parses one envelope. A failure here means the outer envelope is
// unreadable, which callers treat as a broken channel.
func Decode(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	if len(data) > MaxFrameLen {
		return Frame{}, ErrFrameTooLarge
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("frame: decode envelope: %w", err)
	}
	if f.Type == "" {
		return Frame{}, ErrMissingType
	}
	return f, nil
}

// ConnectionInit returns the first client frame of every connection.
func ConnectionInit() Frame {
	return Frame{Type: KindConnectionInit.String()}
}

// Start returns a subscription start frame with a pre-encoded payload.
func Start(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("frame: encode start payload: %w", err)
	}
	return Frame{ID: id, Type: KindStart.String(), Payload: raw}, nil
}

// Stop returns the frame that ends subscription id.
func Stop(id string) Frame {
	return Frame{ID: id, Type: KindStop.String()}
}
