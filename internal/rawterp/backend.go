// Package rawterp drives interpreters that speak an unstructured terminal
// byte stream, such as dumb frotz.
package rawterp

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/proc"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

// DefaultIdleTimeout is how long Get waits for the next byte before treating
// the turn as complete.
const DefaultIdleTimeout = time.Second

// Config controls the raw adapter. Rules override DefaultRules field by field.
type Config struct {
	Encoding    string
	IdleTimeout time.Duration
	Rules       Rules
	Dir         string
	Env         []string
}

// Backend implements core.Backend for the raw protocol.
type Backend struct {
	proc   *proc.Process
	stdout *proc.Queue[byte]
	stderr *proc.Queue[string]
	enc    encoding.Encoding
	idle   time.Duration
	rules  Rules
	log    pslog.Logger
	// pending holds output read by a Get that was canceled.
	pending []byte
	ended   bool
	closed  atomic.Bool
}

// Launch starts the interpreter and its stream pumps.
func Launch(ctx context.Context, cfg Config, req core.LaunchRequest) (*Backend, error) {
	enc, err := LookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, core.NewBackendError(core.BackendErrorLaunch, "encoding", err)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	process, err := proc.Start(ctx, proc.Spec{
		Path:     req.Path,
		Args:     req.Args,
		GameFile: req.GameFile,
		Dir:      cfg.Dir,
		Env:      cfg.Env,
	})
	if err != nil {
		return nil, err
	}
	log := pslog.Ctx(ctx)
	if log != nil {
		log = log.With("protocol", schema.ProtocolRaw, "pid", process.Pid())
	}
	return &Backend{
		proc:   process,
		stdout: proc.PumpBytes(process.Stdout()),
		stderr: proc.PumpLines(process.Stderr()),
		enc:    enc,
		idle:   cfg.IdleTimeout,
		rules:  DefaultRules().Merge(cfg.Rules),
		log:    log,
	}, nil
}

// Get collects output until the interpreter stays quiet for the idle timeout
// and returns it cleaned up as a single entry.
func (b *Backend) Get(ctx context.Context) ([]string, error) {
	if b.closed.Load() {
		return nil, core.NewBackendError(core.BackendErrorCommunication, "get", schema.ErrBackendClosed)
	}
	raw := b.pending
	b.pending = nil
	for {
		unit, err := b.stdout.PopIdle(ctx, b.idle)
		if err != nil {
			if errors.Is(err, proc.ErrIdle) {
				break
			}
			if errors.Is(err, io.EOF) {
				if !b.ended && b.log != nil {
					b.log.Info("interpreter output ended")
				}
				b.ended = true
				break
			}
			if ctx.Err() != nil {
				b.pending = raw
				return nil, ctx.Err()
			}
			return nil, core.NewBackendError(core.BackendErrorCommunication, "read", err)
		}
		raw = append(raw, unit)
	}
	b.drainStderr()
	text, err := decodeText(b.enc, raw)
	if err != nil {
		return nil, core.NewBackendError(core.BackendErrorCommunication, "decode", err)
	}
	if b.log != nil {
		b.log.Trace("interpreter output", "bytes", len(raw))
	}
	return []string{b.rules.Apply(text)}, nil
}

// WriteLine encodes text plus a newline and writes it to the interpreter.
func (b *Backend) WriteLine(text string) error {
	if b.closed.Load() {
		return core.NewBackendError(core.BackendErrorCommunication, "write", schema.ErrBackendClosed)
	}
	data, err := encodeText(b.enc, text+"\n")
	if err != nil {
		return core.NewBackendError(core.BackendErrorCommunication, "encode", err)
	}
	return b.proc.Write(data)
}

// Send writes a line of input and returns the resulting output.
func (b *Backend) Send(ctx context.Context, text string) ([]string, error) {
	if err := b.WriteLine(text); err != nil {
		return nil, err
	}
	return b.Get(ctx)
}

// PromptKind reports a line prompt while the interpreter is running. The raw
// stream carries no prompt information.
func (b *Backend) PromptKind() schema.PromptKind {
	if b.closed.Load() || b.ended {
		return schema.PromptNone
	}
	return schema.PromptLine
}

// Close kills the interpreter. It may be called from any goroutine and
// ends a pending Get.
func (b *Backend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.proc.Teardown()
}

func (b *Backend) drainStderr() {
	for _, line := range b.stderr.Drain() {
		if b.log != nil {
			b.log.Debug("interpreter stderr", "text", strings.TrimRight(line, "\r\n"))
		}
	}
}
