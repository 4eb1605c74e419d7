package proc

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

// Spec describes an interpreter invocation. The game file is appended after
// Args.
type Spec struct {
	Path     string
	Args     []string
	GameFile string
	Dir      string
	Env      []string
}

// Process owns one interpreter subprocess and its three pipes.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser
	log     pslog.Logger
	started time.Time

	mu       sync.Mutex
	torndown bool
	once     sync.Once
}

// Start launches the interpreter with stdin, stdout and stderr redirected to
// pipes. Failures are classified as launch errors and are never retried.
// ctx only supplies the logger; use Teardown to stop the process.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	log := pslog.Ctx(ctx)
	args := BuildArgs(spec)
	cmd := exec.Command(spec.Path, args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	configureProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, core.NewBackendError(core.BackendErrorLaunch, "stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, core.NewBackendError(core.BackendErrorLaunch, "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, core.NewBackendError(core.BackendErrorLaunch, "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		if log != nil {
			log.Error("interpreter start failed", "path", spec.Path, "args", args, "err", err)
		}
		return nil, core.NewBackendError(core.BackendErrorLaunch, "start", err)
	}
	if log != nil {
		log = log.With("pid", cmd.Process.Pid)
		log.Info("interpreter started", "path", spec.Path, "args", args)
	}
	return &Process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		log:     log,
		started: time.Now(),
	}, nil
}

// BuildArgs returns the argument vector passed to the interpreter.
func BuildArgs(spec Spec) []string {
	args := make([]string, 0, len(spec.Args)+1)
	args = append(args, spec.Args...)
	if spec.GameFile != "" {
		args = append(args, spec.GameFile)
	}
	return args
}

// Stdout returns the read side of the interpreter's stdout.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the read side of the interpreter's stderr.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Pid returns the interpreter's process id.
func (p *Process) Pid() int {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Write sends data to the interpreter's stdin. The pipe is unbuffered, so the
// data is flushed once Write returns.
func (p *Process) Write(data []byte) error {
	p.mu.Lock()
	torndown := p.torndown
	p.mu.Unlock()
	if torndown {
		return core.NewBackendError(core.BackendErrorCommunication, "write", schema.ErrBackendClosed)
	}
	if _, err := p.stdin.Write(data); err != nil {
		if p.log != nil {
			p.log.Warn("interpreter write failed", "bytes", len(data), "err", err)
		}
		return core.NewBackendError(core.BackendErrorCommunication, "write", err)
	}
	return nil
}

// Teardown kills the interpreter, closes its pipes and reaps it. It is safe
// to call more than once and after the process exited on its own.
func (p *Process) Teardown() error {
	if p == nil {
		return nil
	}
	var result error
	p.once.Do(func() {
		p.mu.Lock()
		p.torndown = true
		p.mu.Unlock()

		_ = p.stdin.Close()
		if err := killProcessGroup(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			if p.log != nil {
				p.log.Debug("interpreter kill failed", "err", err)
			}
		}
		// Wait closes stdout and stderr, which ends both pumps.
		err := p.cmd.Wait()
		exitCode := 0
		signal := ""
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					signal = status.Signal().String()
				}
			} else {
				result = err
			}
		}
		if p.log != nil {
			fields := []any{
				"exit_code", exitCode,
				"duration_ms", time.Since(p.started).Milliseconds(),
			}
			if signal != "" {
				fields = append(fields, "signal", signal)
			}
			if result != nil {
				fields = append(fields, "err", result)
			}
			p.log.Info("interpreter stopped", fields...)
		}
	})
	return result
}
