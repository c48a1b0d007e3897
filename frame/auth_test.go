package frame

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestAuthHeaderRoundTrip(t *testing.T) {
	cases := []AuthHeader{
		{Authorization: "da2-abc123", Host: "xyz.appsync-api.eu-west-1.amazonaws.com"},
		{Authorization: "eyJhbGciOi.J9+/=", Host: "h"},
		{Authorization: "ünïcode", Host: "api.test"},
	}
	for _, h := range cases {
		token, err := EncodeAuthHeader(h)
		if err != nil {
			t.Fatalf("encode %+v: %v", h, err)
		}
		got, err := DecodeAuthHeader(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if got != h {
			t.Errorf("round trip: got %+v, want %+v", got, h)
		}
	}
}

func TestAuthHeaderKeyNames(t *testing.T) {
	token, err := EncodeAuthHeader(AuthHeader{Authorization: "k", Host: "api.test"})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not std base64: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["Authorization"] != "k" || m["host"] != "api.test" {
		t.Errorf("unexpected header object %s", raw)
	}
}

func TestEmptyPayload(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(EmptyPayload)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "{}" {
		t.Errorf("got %q", raw)
	}
}

func TestDecodeAuthHeaderRejectsGarbage(t *testing.T) {
	if _, err := DecodeAuthHeader("%%%"); err == nil {
		t.Error("expected base64 error")
	}
	if _, err := DecodeAuthHeader(base64.StdEncoding.EncodeToString([]byte("[]"))); err == nil {
		t.Error("expected json error")
	}
}
