package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/schema"
)

const helperEnv = "GLKBRIDGE_PROC_HELPER"

// TestMain runs this binary as a stand-in interpreter when helperEnv is set.
func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "":
		os.Exit(m.Run())
	case "echo":
		fmt.Fprintf(os.Stderr, "args=%s\n", strings.Join(os.Args[1:], ","))
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fmt.Fprintf(os.Stdout, "echo:%s\n", scanner.Text())
		}
		os.Exit(0)
	case "hang":
		fmt.Fprintln(os.Stdout, "hanging")
		time.Sleep(time.Hour)
	case "exit":
		os.Exit(3)
	}
	os.Exit(2)
}

func startHelper(t *testing.T, mode string, args ...string) *Process {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("executable: %v", err)
	}
	process, err := Start(context.Background(), Spec{
		Path:     exe,
		Args:     args,
		GameFile: "story.ulx",
		Env:      []string{helperEnv + "=" + mode},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = process.Teardown() })
	return process
}

func TestBuildArgsAppendsGameFile(t *testing.T) {
	got := BuildArgs(Spec{Args: []string{"-fm", "-width", "60"}, GameFile: "zork.ulx"})
	if strings.Join(got, " ") != "-fm -width 60 zork.ulx" {
		t.Fatalf("unexpected args: %v", got)
	}
	if got := BuildArgs(Spec{Args: []string{"-fm"}}); len(got) != 1 {
		t.Fatalf("empty game file must not be passed: %v", got)
	}
}

func TestStartMissingBinaryIsLaunchError(t *testing.T) {
	_, err := Start(context.Background(), Spec{Path: "/nonexistent/interpreter"})
	if !core.IsKind(err, core.BackendErrorLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestProcessRoundTrip(t *testing.T) {
	process := startHelper(t, "echo", "-fm")
	if process.Pid() == 0 {
		t.Fatalf("expected pid")
	}
	stdout := PumpLines(process.Stdout())
	stderr := PumpLines(process.Stderr())
	if err := process.Write([]byte("look\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	line, err := stdout.Pop(ctx)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if line != "echo:look\n" {
		t.Fatalf("unexpected line %q", line)
	}
	diag, err := stderr.Pop(ctx)
	if err != nil {
		t.Fatalf("stderr Pop: %v", err)
	}
	if diag != "args=-fm,story.ulx\n" {
		t.Fatalf("unexpected stderr %q", diag)
	}
}

func TestTeardownKillsHungProcess(t *testing.T) {
	process := startHelper(t, "hang")
	stdout := PumpLines(process.Stdout())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := stdout.Pop(ctx); err != nil {
		t.Fatalf("Pop: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- process.Teardown() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Teardown: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("teardown did not return")
	}
	if _, err := stdout.Pop(ctx); err != io.EOF {
		t.Fatalf("expected stdout to end, got %v", err)
	}
	if err := process.Teardown(); err != nil {
		t.Fatalf("second Teardown: %v", err)
	}
	err := process.Write([]byte("x\n"))
	if !errors.Is(err, schema.ErrBackendClosed) || !core.IsKind(err, core.BackendErrorCommunication) {
		t.Fatalf("expected closed communication error, got %v", err)
	}
}

func TestTeardownAfterExit(t *testing.T) {
	process := startHelper(t, "exit")
	stdout := PumpBytes(process.Stdout())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := stdout.Pop(ctx); err != io.EOF {
		t.Fatalf("expected EOF from exited process, got %v", err)
	}
	if err := process.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
}
