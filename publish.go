package botcircuits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/botcircuits/botcircuits-go-sdk/wire"
)

// maxResponseBody caps how much of a mutation response is read.
const maxResponseBody = 1 << 20

// Send publishes one user turn with the sendUserMessage mutation. It does
// not retry. Non-2xx responses and network failures are returned as
// *TransportError; GraphQL errors in a 2xx response as *ProtocolError.
// Send does not use the subscription socket and may be called at any time.
func (c *Client) Send(ctx context.Context, req Request) error {
	body, err := c.mutationBody(req)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL, bytes.NewReader(encoded))
	if err != nil {
		return &TransportError{Err: err}
	}
	httpReq.Header.Set("Authorization", c.cfg.Credential)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var mr wire.MutationResponse
	if len(respBody) > 0 && json.Unmarshal(respBody, &mr) == nil && len(mr.Errors) > 0 {
		return &ProtocolError{Source: "mutation", Errors: mr.Errors}
	}

	c.log.Info("user message sent", "status", resp.StatusCode)
	return nil
}

// mutationBody builds the request body for the configured revision.
func (c *Client) mutationBody(req Request) (wire.MutationBody, error) {
	var executor any
	switch c.cfg.Revision {
	case wire.RevisionVoice:
		if len(req.Attributes) > 0 {
			return wire.MutationBody{}, fmt.Errorf("%w: attributes need the %s revision", ErrInvalidRequest, wire.RevisionAttributes)
		}
		executor = wire.ExecutorRequestV1{
			Action:       wire.ActionExecutor,
			AppID:        c.cfg.AppID,
			SessionID:    c.sessionID,
			InputText:    optional(req.Text),
			VoiceMessage: optional(req.Voice),
		}
	default:
		executor = wire.ExecutorRequest{
			Action:            wire.ActionExecutor,
			AppID:             c.cfg.AppID,
			SessionID:         c.sessionID,
			InputText:         optional(req.Text),
			RequestAttributes: req.Attributes,
			VoiceMessage:      optional(req.Voice),
		}
	}
	return wire.NewMutationBody(c.cfg.AppID, c.sessionID, executor)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
