package core

import (
	"context"
	"sync"

	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

// Registry maps sessions to their interpreter backends. Each session owns at
// most one backend; opening a new one tears down the previous.
type Registry struct {
	mu       sync.Mutex
	launcher Launcher
	backends map[schema.SessionID]Backend
	log      pslog.Logger
}

// NewRegistry constructs a Registry that starts backends with launcher.
func NewRegistry(launcher Launcher, logger pslog.Logger) *Registry {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Registry{
		launcher: launcher,
		backends: make(map[schema.SessionID]Backend),
		log:      logger,
	}
}

// Open launches a backend for the session, replacing any existing one.
func (r *Registry) Open(ctx context.Context, id schema.SessionID, req LaunchRequest) (Backend, error) {
	r.Close(id)
	backend, err := r.launcher.Launch(ctx, req)
	if err != nil {
		if r.log != nil {
			r.log.Warn("session launch failed", "session", id, "interpreter", req.Interpreter, "err", err)
		}
		return nil, err
	}
	r.mu.Lock()
	previous := r.backends[id]
	r.backends[id] = backend
	count := len(r.backends)
	r.mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	if r.log != nil {
		r.log.Info("session opened", "session", id, "interpreter", req.Interpreter, "game", req.GameFile, "sessions", count)
	}
	return backend, nil
}

// Get returns the backend registered for the session.
func (r *Registry) Get(id schema.SessionID) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	backend, ok := r.backends[id]
	if !ok {
		return nil, schema.ErrSessionNotFound
	}
	return backend, nil
}

// Close tears down the session's backend. It reports whether one existed.
func (r *Registry) Close(id schema.SessionID) bool {
	r.mu.Lock()
	backend, ok := r.backends[id]
	delete(r.backends, id)
	count := len(r.backends)
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := backend.Close(); err != nil && r.log != nil {
		r.log.Warn("session close failed", "session", id, "err", err)
	}
	if r.log != nil {
		r.log.Info("session closed", "session", id, "sessions", count)
	}
	return true
}

// CloseAll tears down every registered backend.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	backends := r.backends
	r.backends = make(map[schema.SessionID]Backend)
	r.mu.Unlock()
	for id, backend := range backends {
		if err := backend.Close(); err != nil && r.log != nil {
			r.log.Warn("session close failed", "session", id, "err", err)
		}
	}
	if r.log != nil && len(backends) > 0 {
		r.log.Info("sessions closed", "count", len(backends))
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.backends)
}
