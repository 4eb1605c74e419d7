// Package interp starts the backend matching an interpreter's protocol.
package interp

import (
	"context"
	"fmt"
	"time"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/appconfig"
	"pkt.systems/glkbridge/internal/glk"
	"pkt.systems/glkbridge/internal/rawterp"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

// Launcher implements core.Launcher over the configured interpreters.
type Launcher struct {
	interpreters map[schema.InterpreterName]appconfig.InterpreterConfig
}

// NewLauncher validates the interpreter table and returns a Launcher.
func NewLauncher(interpreters []appconfig.InterpreterConfig) (*Launcher, error) {
	table := make(map[schema.InterpreterName]appconfig.InterpreterConfig, len(interpreters))
	for _, cfg := range interpreters {
		if cfg.Protocol == string(schema.ProtocolRaw) {
			if _, err := rawterp.LookupEncoding(cfg.Encoding); err != nil {
				return nil, fmt.Errorf("interpreter %q: %w", cfg.Name, err)
			}
		}
		table[schema.InterpreterName(cfg.Name)] = cfg
	}
	return &Launcher{interpreters: table}, nil
}

// Request builds the launch request for a game on an interpreter. A glk
// interpreter without args or init handshake gets the default format args.
func (l *Launcher) Request(name schema.InterpreterName, gameFile string, savefilePrefix string) (core.LaunchRequest, error) {
	cfg, ok := l.interpreters[name]
	if !ok {
		return core.LaunchRequest{}, fmt.Errorf("%w: %s", schema.ErrInterpreterNotFound, name)
	}
	args := append([]string(nil), cfg.Args...)
	if len(args) == 0 && !cfg.Init && cfg.Protocol == string(schema.ProtocolGlk) {
		args = glk.DefaultArgs()
	}
	return core.LaunchRequest{
		Interpreter:    name,
		Path:           cfg.Binary,
		Args:           args,
		GameFile:       gameFile,
		SavefilePrefix: savefilePrefix,
	}, nil
}

// Launch starts the backend for req.Interpreter.
func (l *Launcher) Launch(ctx context.Context, req core.LaunchRequest) (core.Backend, error) {
	cfg, ok := l.interpreters[req.Interpreter]
	if !ok {
		return nil, core.NewBackendError(core.BackendErrorLaunch, "lookup", fmt.Errorf("%w: %s", schema.ErrInterpreterNotFound, req.Interpreter))
	}
	log := pslog.Ctx(ctx)
	if log != nil {
		log.Debug("interpreter launch", "interpreter", req.Interpreter, "protocol", cfg.Protocol, "game", req.GameFile)
	}
	switch schema.Protocol(cfg.Protocol) {
	case schema.ProtocolGlk:
		backend, err := glk.Launch(ctx, glkConfig(cfg), req)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case schema.ProtocolRaw:
		backend, err := rawterp.Launch(ctx, rawConfig(cfg), req)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, core.NewBackendError(core.BackendErrorLaunch, "lookup", fmt.Errorf("%w: %q", schema.ErrUnsupportedProtocol, cfg.Protocol))
	}
}

func glkConfig(cfg appconfig.InterpreterConfig) glk.Config {
	return glk.Config{
		Init:         cfg.Init,
		Width:        cfg.Width,
		Height:       cfg.Height,
		FrameTimeout: time.Duration(cfg.FrameTimeoutSeconds) * time.Second,
		Dir:          cfg.Dir,
		Env:          cfg.Env,
	}
}

func rawConfig(cfg appconfig.InterpreterConfig) rawterp.Config {
	return rawterp.Config{
		Encoding:    cfg.Encoding,
		IdleTimeout: time.Duration(cfg.IdleTimeoutMS) * time.Millisecond,
		Rules: rawterp.Rules{
			PromptSuffixes:   cfg.PromptSuffixes,
			MoreMarkers:      cfg.MoreMarkers,
			MoreHint:         cfg.MoreHint,
			StatusDelimiters: cfg.StatusDelimiters,
			StatusSeparator:  cfg.StatusSeparator,
		},
		Dir: cfg.Dir,
		Env: cfg.Env,
	}
}
