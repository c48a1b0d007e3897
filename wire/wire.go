// Package wire defines the JSON payload types exchanged with the BotCircuits
// GraphQL API, on both the realtime subscription and the HTTPS mutation path.
//
// Two fields are JSON documents encoded as strings inside JSON: the start
// payload's "data" and the bot message's "data" (and, outbound, the
// mutation's variables.data). The helpers here perform that second encode or
// decode step explicitly.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UserAgent identifies the client in the start frame's authorization block.
const UserAgent = "aws-amplify/4.7.14 js"

// SubscribeBotMessageQuery subscribes to bot replies for one session.
const SubscribeBotMessageQuery = `subscription Subscribe($appId: String!, $sessionId: String!) {
  subscribeBotMessage(appId: $appId, sessionId: $sessionId) {
    data
    appId
    sessionId
  }
}`

// SendUserMessageMutation publishes one user turn.
const SendUserMessageMutation = `mutation Publish($data: AWSJSON!, $appId: String!, $sessionId: String!) {
  sendUserMessage(data: $data, appId: $appId, sessionId: $sessionId) {
    data
    appId
    sessionId
  }
}`

// ErrNoBotMessage is returned when a data payload does not carry a
// subscribeBotMessage result.
var ErrNoBotMessage = errors.New("wire: payload has no bot message")

// SessionVariables are the GraphQL variables shared by both operations.
type SessionVariables struct {
	AppID     string `json:"appId"`
	SessionID string `json:"sessionId"`
}

// GraphQLRequest is a query document with its variables.
type GraphQLRequest struct {
	Query     string           `json:"query"`
	Variables SessionVariables `json:"variables"`
}

// Authorization is the extension block the realtime endpoint checks on start.
type Authorization struct {
	Authorization string `json:"Authorization"`
	Host          string `json:"host"`
	UserAgent     string `json:"x-amz-user-agent"`
}

// StartExtensions wraps Authorization.
type StartExtensions struct {
	Authorization Authorization `json:"authorization"`
}

// StartPayload is the payload of a start frame (client -> server).
// Data holds the JSON-encoded GraphQLRequest.
type StartPayload struct {
	Data       string          `json:"data"`
	Extensions StartExtensions `json:"extensions"`
}

// NewStartPayload builds the subscribeBotMessage start payload.
func NewStartPayload(appID, sessionID, credential, host string) (StartPayload, error) {
	doc, err := json.Marshal(GraphQLRequest{
		Query:     SubscribeBotMessageQuery,
		Variables: SessionVariables{AppID: appID, SessionID: sessionID},
	})
	if err != nil {
		return StartPayload{}, fmt.Errorf("wire: encode subscription: %w", err)
	}
	return StartPayload{
		Data: string(doc),
		Extensions: StartExtensions{Authorization: Authorization{
			Authorization: credential,
			Host:          host,
			UserAgent:     UserAgent,
		}},
	}, nil
}

// SubscribeBotMessage is the subscription result object.
type SubscribeBotMessage struct {
	Data      string `json:"data"`
	AppID     string `json:"appId"`
	SessionID string `json:"sessionId"`
}

// DataPayload is the payload of a data frame (server -> client).
type DataPayload struct {
	Data struct {
		SubscribeBotMessage *SubscribeBotMessage `json:"subscribeBotMessage"`
	} `json:"data"`
}

// BotMessage is the inner document carried by SubscribeBotMessage.Data.
type BotMessage struct {
	Message *MessageBody `json:"message"`
}

// MessageBody is one bot reply. Content is forwarded untouched.
type MessageBody struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// DecodeBotMessage unwraps a data frame payload in two stages: the outer
// payload to its subscribeBotMessage.data string, then that string to a
// BotMessage.
func DecodeBotMessage(payload json.RawMessage) (*MessageBody, error) {
	var dp DataPayload
	if err := json.Unmarshal(payload, &dp); err != nil {
		return nil, fmt.Errorf("wire: decode data payload: %w", err)
	}
	sub := dp.Data.SubscribeBotMessage
	if sub == nil || sub.Data == "" {
		return nil, ErrNoBotMessage
	}
	var bm BotMessage
	if err := json.Unmarshal([]byte(sub.Data), &bm); err != nil {
		return nil, fmt.Errorf("wire: decode bot message: %w", err)
	}
	if bm.Message == nil {
		return nil, ErrNoBotMessage
	}
	return bm.Message, nil
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message   string          `json:"message"`
	ErrorType string          `json:"errorType,omitempty"`
	ErrorCode int             `json:"errorCode,omitempty"`
	Path      []any           `json:"path,omitempty"`
	Locations json.RawMessage `json:"locations,omitempty"`
}

// ErrorPayload is the payload of connection_error and error frames.
type ErrorPayload struct {
	Errors []GraphQLError `json:"errors"`
}

// DecodeErrors extracts the errors array from an error frame payload. Entries
// that are not objects are kept as their raw text in Message.
func DecodeErrors(payload json.RawMessage) []GraphQLError {
	if len(payload) == 0 {
		return nil
	}
	var ep ErrorPayload
	if err := json.Unmarshal(payload, &ep); err == nil {
		return ep.Errors
	}
	var raw struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return []GraphQLError{{Message: string(payload)}}
	}
	out := make([]GraphQLError, 0, len(raw.Errors))
	for _, e := range raw.Errors {
		var ge GraphQLError
		if json.Unmarshal(e, &ge) != nil || ge.Message == "" {
			ge = GraphQLError{Message: string(e)}
		}
		out = append(out, ge)
	}
	return out
}

// --------------------------------------------------------------------------
// Mutation path
// --------------------------------------------------------------------------

// Revision selects the executor request field set. The backend replaced the
// voiceMessage field with requestAttributes in its second revision.
type Revision int

const (
	RevisionAttributes Revision = 0 // current
	RevisionVoice      Revision = 1 // first protocol revision
)

// String returns a short name for r.
func (r Revision) String() string {
	switch r {
	case RevisionAttributes:
		return "attributes"
	case RevisionVoice:
		return "voice"
	default:
		return fmt.Sprintf("revision(%d)", int(r))
	}
}

// ParseRevision accepts "attributes"/"2" and "voice"/"1".
func ParseRevision(s string) (Revision, error) {
	switch s {
	case "", "attributes", "2":
		return RevisionAttributes, nil
	case "voice", "1":
		return RevisionVoice, nil
	}
	return 0, fmt.Errorf("wire: unknown protocol revision %q", s)
}

// UnmarshalText lets Revision be read from config files and env.
func (r *Revision) UnmarshalText(text []byte) error {
	v, err := ParseRevision(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ActionExecutor is the only action the client issues.
const ActionExecutor = "executor"

// ExecutorRequest is the current executor document. Absent text and
// attributes encode as null.
type ExecutorRequest struct {
	Action            string         `json:"action"`
	AppID             string         `json:"appId"`
	SessionID         string         `json:"sessionId"`
	InputText         *string        `json:"inputText"`
	RequestAttributes map[string]any `json:"requestAttributes"`
	VoiceMessage      *string        `json:"voiceMessage,omitempty"`
}

// ExecutorRequestV1 is the first-revision executor document.
type ExecutorRequestV1 struct {
	Action       string  `json:"action"`
	AppID        string  `json:"appId"`
	SessionID    string  `json:"sessionId"`
	InputText    *string `json:"inputText"`
	VoiceMessage *string `json:"voiceMessage"`
}

// MutationVariables are the sendUserMessage variables. Data holds the
// JSON-encoded executor request.
type MutationVariables struct {
	AppID     string `json:"appId"`
	SessionID string `json:"sessionId"`
	Data      string `json:"data"`
}

// MutationBody is the HTTPS request body.
type MutationBody struct {
	Query     string            `json:"query"`
	Variables MutationVariables `json:"variables"`
}

// NewMutationBody JSON-encodes executor into variables.data.
func NewMutationBody(appID, sessionID string, executor any) (MutationBody, error) {
	data, err := json.Marshal(executor)
	if err != nil {
		return MutationBody{}, fmt.Errorf("wire: encode executor request: %w", err)
	}
	return MutationBody{
		Query: SendUserMessageMutation,
		Variables: MutationVariables{
			AppID:     appID,
			SessionID: sessionID,
			Data:      string(data),
		},
	}, nil
}

// MutationResponse is a 2xx response from the GraphQL endpoint.
type MutationResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}
