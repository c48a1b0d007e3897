package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewStartPayloadDoubleEncodes(t *testing.T) {
	p, err := NewStartPayload("A1", "S1", "secret", "api.test")
	if err != nil {
		t.Fatal(err)
	}

	var doc GraphQLRequest
	if err := json.Unmarshal([]byte(p.Data), &doc); err != nil {
		t.Fatalf("data is not a JSON document: %v", err)
	}
	if doc.Query != SubscribeBotMessageQuery {
		t.Errorf("query: got %q", doc.Query)
	}
	if doc.Variables != (SessionVariables{AppID: "A1", SessionID: "S1"}) {
		t.Errorf("variables: got %+v", doc.Variables)
	}

	raw, _ := json.Marshal(p.Extensions)
	want := `{"authorization":{"Authorization":"secret","host":"api.test","x-amz-user-agent":"aws-amplify/4.7.14 js"}}`
	if string(raw) != want {
		t.Errorf("extensions: got %s, want %s", raw, want)
	}
}

func TestDecodeBotMessage(t *testing.T) {
	payload := json.RawMessage(`{"data":{"subscribeBotMessage":{"data":"{\"message\":{\"type\":\"text\",\"content\":\"hi\"}}","appId":"A1","sessionId":"S1"}}}`)

	msg, err := DecodeBotMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "text" {
		t.Errorf("type: got %q", msg.Type)
	}
	if string(msg.Content) != `"hi"` {
		t.Errorf("content: got %s", msg.Content)
	}
}

func TestDecodeBotMessageStructuredContent(t *testing.T) {
	inner := `{"message":{"type":"card","content":{"title":"T","buttons":[{"label":"ok"}]}}}`
	outer, _ := json.Marshal(map[string]any{
		"data": map[string]any{"subscribeBotMessage": map[string]any{"data": inner}},
	})

	msg, err := DecodeBotMessage(outer)
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Content) != `{"title":"T","buttons":[{"label":"ok"}]}` {
		t.Errorf("content: got %s", msg.Content)
	}
}

func TestDecodeBotMessageFailures(t *testing.T) {
	cases := map[string]string{
		"not json":         `nope`,
		"no data":          `{}`,
		"null result":      `{"data":{"subscribeBotMessage":null}}`,
		"empty inner":      `{"data":{"subscribeBotMessage":{"data":""}}}`,
		"inner not json":   `{"data":{"subscribeBotMessage":{"data":"{oops"}}}`,
		"inner no message": `{"data":{"subscribeBotMessage":{"data":"{\"other\":1}"}}}`,
	}
	for name, payload := range cases {
		if _, err := DecodeBotMessage(json.RawMessage(payload)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	_, err := DecodeBotMessage(json.RawMessage(`{"data":{"subscribeBotMessage":null}}`))
	if !errors.Is(err, ErrNoBotMessage) {
		t.Errorf("expected ErrNoBotMessage, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	errs := DecodeErrors(json.RawMessage(`{"errors":[{"errorType":"LimitExceededError","message":"slow down","errorCode":429}]}`))
	if len(errs) != 1 || errs[0].ErrorType != "LimitExceededError" || errs[0].ErrorCode != 429 {
		t.Errorf("got %+v", errs)
	}

	errs = DecodeErrors(json.RawMessage(`{"errors":["plain text", {"message":"obj"}]}`))
	if len(errs) != 2 || errs[0].Message != `"plain text"` || errs[1].Message != "obj" {
		t.Errorf("mixed: got %+v", errs)
	}

	if errs := DecodeErrors(nil); errs != nil {
		t.Errorf("nil payload: got %+v", errs)
	}
}

func TestNewMutationBody(t *testing.T) {
	text := "Hello"
	body, err := NewMutationBody("A1", "S1", ExecutorRequest{
		Action:            ActionExecutor,
		AppID:             "A1",
		SessionID:         "S1",
		InputText:         &text,
		RequestAttributes: map[string]any{"phone": "+15550100"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if body.Query != SendUserMessageMutation {
		t.Errorf("query mismatch")
	}
	if body.Variables.AppID != "A1" || body.Variables.SessionID != "S1" {
		t.Errorf("variables: got %+v", body.Variables)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(body.Variables.Data), &got); err != nil {
		t.Fatalf("data is not a JSON document: %v", err)
	}
	for _, key := range []string{"action", "appId", "sessionId", "inputText", "requestAttributes"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing %q in %s", key, body.Variables.Data)
		}
	}
	if _, ok := got["voiceMessage"]; ok {
		t.Errorf("voiceMessage should be omitted when unset")
	}
}

func TestParseRevision(t *testing.T) {
	for in, want := range map[string]Revision{
		"":           RevisionAttributes,
		"attributes": RevisionAttributes,
		"2":          RevisionAttributes,
		"voice":      RevisionVoice,
		"1":          RevisionVoice,
	} {
		got, err := ParseRevision(in)
		if err != nil || got != want {
			t.Errorf("ParseRevision(%q): got %v, %v", in, got, err)
		}
	}
	if _, err := ParseRevision("3"); err == nil {
		t.Error("expected error for unknown revision")
	}

	var r Revision
	if err := r.UnmarshalText([]byte("voice")); err != nil || r != RevisionVoice {
		t.Errorf("UnmarshalText: got %v, %v", r, err)
	}
}
