package command

import "testing"

func TestParseIgnoresPlainInput(t *testing.T) {
	if _, ok := Parse("open mailbox"); ok {
		t.Fatalf("expected plain input to be ignored")
	}
}

func TestParseKeepsArgumentSpacing(t *testing.T) {
	cmd, ok := Parse("  /START  Zork  Underground ")
	if !ok {
		t.Fatalf("expected command")
	}
	if cmd.Name != "start" {
		t.Fatalf("unexpected name: %q", cmd.Name)
	}
	if cmd.Argument != "Zork  Underground" {
		t.Fatalf("unexpected argument: %q", cmd.Argument)
	}
}

func TestParseStripsRecipient(t *testing.T) {
	cmd, ok := Parse("/start@frotzbot\tAdvent")
	if !ok {
		t.Fatalf("expected command")
	}
	if cmd.Name != "start" || cmd.Argument != "Advent" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	cmd, _ = Parse("/quit@frotzbot")
	if cmd.Name != "quit" || cmd.Argument != "" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestParseEmptyCommand(t *testing.T) {
	for _, input := range []string{"/", "/   ", "/@bot"} {
		cmd, ok := Parse(input)
		if !ok {
			t.Fatalf("expected command for %q", input)
		}
		if cmd.Name != "" {
			t.Fatalf("expected empty name for %q, got %q", input, cmd.Name)
		}
	}
}
