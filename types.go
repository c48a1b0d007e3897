package botcircuits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/botcircuits/botcircuits-go-sdk/wire"
)

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

// MessageKind is the bot message discriminator. The client does not
// interpret it; the named kinds are the ones the backend is known to emit and
// anything else is reported as-is (IsKnown returns false).
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindCard     MessageKind = "card"
	KindImage    MessageKind = "image"
	KindButtons  MessageKind = "buttons"
	KindCarousel MessageKind = "carousel"
)

// IsKnown reports whether k is one of the named kinds.
func (k MessageKind) IsKnown() bool {
	switch k {
	case KindText, KindCard, KindImage, KindButtons, KindCarousel:
		return true
	}
	return false
}

// Message is one decoded bot reply.
type Message struct {
	Type    MessageKind
	Content json.RawMessage
}

// Text returns Content as a string when it is a JSON string.
func (m Message) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// Decode unmarshals Content into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Content, v)
}

// Handler receives bot messages in arrival order, one at a time. The next
// frame is not read until the handler returns. ctx is cancelled when the
// subscription is stopped. Returned errors are logged.
//
// A handler must not call Stop or Close on the client that invoked it.
type Handler func(ctx context.Context, msg Message) error

// Request is one user turn. Text and Voice may both be set; the backend
// decides which one it uses. Attributes carry channel-specific routing such
// as a caller phone number.
type Request struct {
	Text       string
	Voice      string // encoded audio
	Attributes map[string]any
}

// --------------------------------------------------------------------------
// Subscription state
// --------------------------------------------------------------------------

// State is the subscription engine's position in its lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateSubscribed
	StateDraining
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateSubscribed:
		return "subscribed"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrConfig wraps every configuration failure reported by New.
	ErrConfig = errors.New("botcircuits: invalid configuration")

	ErrNilHandler     = errors.New("botcircuits: nil handler")
	ErrNotStarted     = errors.New("botcircuits: subscription not started")
	ErrInvalidRequest = errors.New("botcircuits: invalid request")
)

// ConnectError reports a failure to open the socket or complete the
// handshake.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("botcircuits: connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ChannelError reports the loss of an established subscription: the peer
// closed the socket, a read failed, or an envelope could not be decoded.
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string {
	return "botcircuits: subscription channel: " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error { return e.Err }

// DecodeError reports a data frame whose bot message could not be decoded.
// It only affects that frame.
type DecodeError struct {
	Payload json.RawMessage
	Err     error
}

func (e *DecodeError) Error() string {
	return "botcircuits: decode bot message: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolError carries GraphQL errors reported by the backend, either in a
// connection_error/error frame or in a mutation response.
type ProtocolError struct {
	Source string // frame type, or "mutation"
	Errors []wire.GraphQLError
}

func (e *ProtocolError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return fmt.Sprintf("botcircuits: %s: %s", e.Source, strings.Join(msgs, "; "))
}

// TransportError reports a failed Send. StatusCode is zero when no HTTP
// response was received, in which case Err holds the cause.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("botcircuits: send: %v", e.Err)
	}
	return fmt.Sprintf("botcircuits: send: HTTP %d - %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
