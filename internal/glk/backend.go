package glk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/framing"
	"pkt.systems/glkbridge/internal/proc"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

// Display defaults match the format arguments glk interpreters are usually
// started with (-fm -width 60 -height 100).
const (
	DefaultWidth  = 60
	DefaultHeight = 100
)

// DefaultArgs are the RemGlk format arguments used when none are configured.
func DefaultArgs() []string {
	return []string{"-fm", "-width", "60", "-height", "100"}
}

// Config controls the glk adapter.
type Config struct {
	// Init sends the init handshake after launch. Interpreters started with
	// -fm do not need it.
	Init   bool
	Width  int
	Height int
	// FrameTimeout bounds the wait for each frame; zero waits until the
	// caller's context is done or the process exits. A wait that ends
	// without a frame breaks the backend.
	FrameTimeout time.Duration
	Dir          string
	Env          []string
}

// Backend implements core.Backend for the RemGlk protocol.
type Backend struct {
	proc           *proc.Process
	frames         *proc.Queue[json.RawMessage]
	stderr         *proc.Queue[string]
	state          *State
	savefilePrefix string
	frameTimeout   time.Duration
	log            pslog.Logger
	err            error
	closed         atomic.Bool
}

// Launch starts the interpreter and its stream pumps.
func Launch(ctx context.Context, cfg Config, req core.LaunchRequest) (*Backend, error) {
	log := pslog.Ctx(ctx)
	if len(req.Args) == 0 && log != nil {
		log.Warn("glk interpreter started without format args; it may produce no output")
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
	if log != nil {
		log = log.With("protocol", schema.ProtocolGlk, "pid", process.Pid())
	}
	splitter := framing.NewSplitter(process.Stdout())
	b := &Backend{
		proc:           process,
		frames:         proc.Pump(splitter.Next),
		stderr:         proc.PumpLines(process.Stderr()),
		state:          NewState(log),
		savefilePrefix: req.SavefilePrefix,
		frameTimeout:   cfg.FrameTimeout,
		log:            log,
	}
	if cfg.Init {
		width, height := cfg.Width, cfg.Height
		if width <= 0 {
			width = DefaultWidth
		}
		if height <= 0 {
			height = DefaultHeight
		}
		if err := b.writeJSON(NewInitEvent(width, height)); err != nil {
			_ = process.Teardown()
			return nil, core.NewBackendError(core.BackendErrorLaunch, "init", err)
		}
	}
	return b, nil
}

// Get decodes the next frame.
func (b *Backend) Get(ctx context.Context) ([]string, error) {
	return b.receive(ctx, "")
}

// Send answers the pending prompt with text and decodes the reply, hiding
// the interpreter's echo of text.
func (b *Backend) Send(ctx context.Context, text string) ([]string, error) {
	if err := b.usable(); err != nil {
		return nil, err
	}
	cmd, err := Encode(b.state.Prompt(), b.state.Generation(), text, b.savefilePrefix)
	if err != nil {
		return nil, err
	}
	if err := b.writeJSON(cmd); err != nil {
		return nil, err
	}
	return b.receive(ctx, text)
}

// PromptKind reports the pending prompt.
func (b *Backend) PromptKind() schema.PromptKind {
	if b.closed.Load() || b.err != nil {
		return schema.PromptNone
	}
	return PromptKindOf(b.state.Prompt())
}

// State exposes the window state for inspection.
func (b *Backend) State() *State {
	return b.state
}

// Close kills the interpreter. It may be called from any goroutine and
// unblocks a pending Get or Send.
func (b *Backend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.proc.Teardown()
}

func (b *Backend) usable() error {
	if b.closed.Load() {
		return core.NewBackendError(core.BackendErrorCommunication, "use", schema.ErrBackendClosed)
	}
	return b.err
}

func (b *Backend) receive(ctx context.Context, echoFilter string) ([]string, error) {
	if err := b.usable(); err != nil {
		return nil, err
	}
	if b.frameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.frameTimeout)
		defer cancel()
	}
	frame, err := b.frames.Pop(ctx)
	b.drainStderr()
	if err != nil {
		return nil, b.classify(ctx, err)
	}
	if b.log != nil {
		b.log.Trace("glk <<", "frame", previewText(string(frame), 500))
	}
	return b.state.Decode(frame, echoFilter), nil
}

// classify turns a pop failure into the sticky error reported to the caller.
// A wait abandoned by ctx leaves a reply in flight that would otherwise be
// read as the answer to the next command.
func (b *Backend) classify(ctx context.Context, err error) error {
	var frameErr *framing.FrameError
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		if b.log != nil {
			b.log.Warn("glk frame wait abandoned", "err", err)
		}
		b.err = core.NewBackendError(core.BackendErrorCommunication, "read", err)
	case errors.As(err, &frameErr):
		if b.log != nil {
			b.log.Error("glk stream desynchronized", "offset", frameErr.Offset, "partial", previewText(string(frameErr.Partial), 200), "err", err)
		}
		b.err = core.NewBackendError(core.BackendErrorFrame, "read", err)
	case errors.Is(err, io.EOF):
		if b.log != nil {
			b.log.Warn("glk output ended")
		}
		b.err = core.NewBackendError(core.BackendErrorCommunication, "read", io.ErrUnexpectedEOF)
	default:
		b.err = core.NewBackendError(core.BackendErrorCommunication, "read", err)
	}
	return b.err
}

func (b *Backend) writeJSON(value any) error {
	data, err := marshalCompact(value)
	if err != nil {
		return core.NewBackendError(core.BackendErrorCommunication, "encode", err)
	}
	if b.log != nil {
		b.log.Trace("glk >>", "command", string(data))
	}
	return b.proc.Write(append(data, '\n'))
}

func (b *Backend) drainStderr() {
	for _, line := range b.stderr.Drain() {
		if b.log != nil {
			b.log.Debug("interpreter stderr", "text", strings.TrimRight(line, "\r\n"))
		}
	}
}
