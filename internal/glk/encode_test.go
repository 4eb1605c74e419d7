package glk

import (
	"errors"
	"testing"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/schema"
)

func TestEncodeLine(t *testing.T) {
	cmd, err := Encode(LinePrompt{WindowID: 3}, 7, "north", "savedata/42_")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data, err := cmd.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if got := string(data); got != `{"type":"line","gen":7,"value":"north","window":3}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}

func TestEncodeChar(t *testing.T) {
	cmd, err := Encode(CharPrompt{WindowID: 1}, 4, "y", "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data, _ := cmd.Bytes()
	if got := string(data); got != `{"type":"char","gen":4,"value":"y","window":1}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}

func TestEncodeFilerefPrefixesSaveName(t *testing.T) {
	cmd, err := Encode(FilerefPrompt{}, 9, "myslot", "savedata/42_")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data, _ := cmd.Bytes()
	if got := string(data); got != `{"type":"specialresponse","response":"fileref_prompt","value":"savedata/42_myslot"}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	cmd, _ := Encode(LinePrompt{WindowID: 2}, 1, "say <hi> & bye", "")
	data, _ := cmd.Bytes()
	if got := string(data); got != `{"type":"line","gen":1,"value":"say <hi> & bye","window":2}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}

func TestEncodeWithoutPrompt(t *testing.T) {
	_, err := Encode(nil, 1, "look", "")
	if !core.IsKind(err, core.BackendErrorNoPrompt) || !errors.Is(err, schema.ErrNoPromptActive) {
		t.Fatalf("expected no_prompt error, got %v", err)
	}
	if core.IsFatal(err) {
		t.Fatalf("no_prompt must not be fatal")
	}
}

func TestInitEvent(t *testing.T) {
	data, err := marshalCompact(NewInitEvent(60, 100))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"type":"init","gen":0,"metrics":{"width":60,"height":100},"support":["timer","hyperlinks"]}` {
		t.Fatalf("unexpected init event %s", got)
	}
}
