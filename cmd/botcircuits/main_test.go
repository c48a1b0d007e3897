package main

import (
	"bytes"
	"encoding/json"
	"testing"

	botcircuits "github.com/botcircuits/botcircuits-go-sdk"
)

func TestAttributesFlag(t *testing.T) {
	a := attributes{}
	if err := a.Set("phoneNumber=+15550100"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set("channel=voice=1"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set("novalue"); err == nil {
		t.Error("expected error for missing '='")
	}
	if err := a.Set("=x"); err == nil {
		t.Error("expected error for empty key")
	}

	if got := a.String(); got != "channel=voice=1,phoneNumber=+15550100" {
		t.Errorf("String: got %q", got)
	}
	v := a.values()
	if v["phoneNumber"] != "+15550100" || v["channel"] != "voice=1" {
		t.Errorf("values: got %v", v)
	}
	if (attributes{}).values() != nil {
		t.Error("empty attributes should produce nil")
	}
}

func TestPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	printMessage(&buf, botcircuits.Message{Type: botcircuits.KindText, Content: json.RawMessage(`"hi"`)})
	printMessage(&buf, botcircuits.Message{Type: botcircuits.KindCard, Content: json.RawMessage(`{"title":"T"}`)})

	want := "bot> hi\nbot> [card] {\"title\":\"T\"}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
