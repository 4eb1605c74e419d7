package rawterp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/proc"
	"pkt.systems/glkbridge/schema"
)

const helperEnv = "GLKBRIDGE_RAWTERP_HELPER"

// TestMain runs this binary as a dumb-terminal interpreter when helperEnv is
// set.
func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "":
		os.Exit(m.Run())
	case "frotz":
		out := bufio.NewWriter(os.Stdout)
		_, _ = out.WriteString(" Field    Moves: 0\n. \nYou are in a field.\n\n>")
		_ = out.Flush()
		fmt.Fprintln(os.Stderr, "frotz warning")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch scanner.Text() {
			case "quit":
				_, _ = out.WriteString("\nBye.\n")
				_ = out.Flush()
				os.Exit(0)
			case "cafe":
				_, _ = out.Write([]byte{'\n', 'c', 'a', 'f', 0xe9, '\n', '>'})
			default:
				_, _ = out.WriteString("\nYou said " + scanner.Text() + ".\n\n> >")
			}
			_ = out.Flush()
		}
		os.Exit(0)
	}
	os.Exit(2)
}

func launchHelper(t *testing.T, cfg Config) *Backend {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("executable: %v", err)
	}
	cfg.Env = append(cfg.Env, helperEnv+"=frotz")
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Second
	}
	backend, err := Launch(context.Background(), cfg, core.LaunchRequest{Path: exe, GameFile: "zork1.z5"})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestBackendConversation(t *testing.T) {
	backend := launchHelper(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	intro, err := backend.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(intro) != 1 || intro[0] != " Field    Moves: 0\n=====\nYou are in a field.\n" {
		t.Fatalf("unexpected intro %q", intro)
	}
	if backend.PromptKind() != schema.PromptLine {
		t.Fatalf("expected line prompt")
	}
	reply, err := backend.Send(ctx, "look")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply[0] != "\nYou said look.\n" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestBackendDecodesLegacyCodePage(t *testing.T) {
	backend := launchHelper(t, Config{Encoding: "windows-1252"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := backend.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	reply, err := backend.Send(ctx, "cafe")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply[0] != "\ncafé" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestBackendEndsWhenInterpreterExits(t *testing.T) {
	backend := launchHelper(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := backend.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	reply, err := backend.Send(ctx, "quit")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply[0] != "\nBye.\n" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if backend.PromptKind() != schema.PromptNone {
		t.Fatalf("expected no prompt after exit")
	}
}

func TestBackendClosed(t *testing.T) {
	backend := launchHelper(t, Config{})
	if err := backend.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	_, err := backend.Send(context.Background(), "look")
	if !errors.Is(err, schema.ErrBackendClosed) || !core.IsKind(err, core.BackendErrorCommunication) {
		t.Fatalf("expected closed communication error, got %v", err)
	}
	if backend.PromptKind() != schema.PromptNone {
		t.Fatalf("expected no prompt after close")
	}
}

func TestLaunchRejectsUnknownEncoding(t *testing.T) {
	_, err := Launch(context.Background(), Config{Encoding: "klingon-8"}, core.LaunchRequest{Path: "/bin/true"})
	if !core.IsKind(err, core.BackendErrorLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestGetKeepsOutputReadBeforeCancel(t *testing.T) {
	enc, err := LookupEncoding("")
	if err != nil {
		t.Fatalf("LookupEncoding: %v", err)
	}
	stdout := proc.NewQueue[byte]()
	backend := &Backend{
		stdout: stdout,
		stderr: proc.NewQueue[string](),
		enc:    enc,
		idle:   50 * time.Millisecond,
		rules:  DefaultRules(),
	}
	push := func(text string) {
		for i := 0; i < len(text); i++ {
			stdout.Push(text[i])
		}
	}

	push("You are in ")
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := backend.Get(canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	push("a field.\n>")
	out, err := backend.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out[0] != "You are in a field." {
		t.Fatalf("output lost across cancel: %q", out)
	}
}
