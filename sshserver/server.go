package sshserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"pkt.systems/glkbridge/internal/logx"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/pslog"
)

const welcomeBanner = "glkbridge: type /help for commands\n"

// Session is one chat driven by an SSH connection.
type Session interface {
	Begin(ctx context.Context) error
	Handle(ctx context.Context, line string) error
	Close()
}

// SessionFactory creates the chat for a new SSH session. Output written to
// out reaches the player.
type SessionFactory interface {
	NewSession(ctx context.Context, id schema.SessionID, out io.Writer) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context, id schema.SessionID, out io.Writer) (Session, error)

// NewSession calls f.
func (f SessionFactoryFunc) NewSession(ctx context.Context, id schema.SessionID, out io.Writer) (Session, error) {
	return f(ctx, id, out)
}

// Server exposes interpreter chats over SSH.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Sessions    SessionFactory
	IdlePrompt  string
	// AuthorizedKeys restricts logins when non-empty.
	AuthorizedKeys []ssh.PublicKey
	logger         pslog.Logger
}

// New builds a Server from cfg.
func New(cfg Config, sessions SessionFactory) (*Server, error) {
	server := &Server{
		Addr:        cfg.Addr,
		HostKeyPath: cfg.HostKeyPath,
		Sessions:    sessions,
		IdlePrompt:  cfg.IdlePrompt,
	}
	if strings.TrimSpace(cfg.AuthorizedKeysPath) != "" {
		keys, err := LoadAuthorizedKeys(cfg.AuthorizedKeysPath)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("authorized keys %s: no keys", cfg.AuthorizedKeysPath)
		}
		server.AuthorizedKeys = keys
	}
	return server, nil
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.IdlePrompt == "" {
		s.IdlePrompt = "> "
	}
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Sessions == nil {
		return errors.New("session factory is required for SSH")
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:    s.Addr,
		Handler: s.handleSession,
	}
	if len(s.AuthorizedKeys) > 0 {
		server.PublicKeyHandler = s.handlePublicKey
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			s.logger.Info("ssh listening", "addr", s.Listener.Addr().String())
			errCh <- server.Serve(s.Listener)
			return
		}
		s.logger.Info("ssh listening", "addr", s.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log = log.With("user", ctx.User(), "remote", remoteAddr(ctx), "fingerprint", ssh.FingerprintSHA256(key))
	for _, allowed := range s.AuthorizedKeys {
		if gliderssh.KeysEqual(key, allowed) {
			log.Info("ssh pubkey accepted")
			return true
		}
	}
	log.Warn("ssh pubkey rejected", "reason", "no matching key")
	return false
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	sessionID := schema.SessionID(shortID(sess.Context().SessionID()))
	log = log.With("user", sess.User(), "remote", sess.RemoteAddr().String(), "session", sessionID)
	ctx := logx.ContextWithSessionLogger(sess.Context(), log, sessionID)

	pty, winCh, isPty := sess.Pty()
	var out io.Writer = sess
	var readLine func() (string, error)
	if isPty {
		terminal := term.NewTerminal(sess, s.IdlePrompt)
		_ = terminal.SetSize(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				_ = terminal.SetSize(win.Width, win.Height)
			}
		}()
		out = terminal
		readLine = terminal.ReadLine
		log.Info("ssh session opened", "term", pty.Term)
	} else {
		reader := bufio.NewReader(sess)
		readLine = func() (string, error) {
			line, err := reader.ReadString('\n')
			if err != nil && line != "" && errors.Is(err, io.EOF) {
				return line, nil
			}
			return line, err
		}
		log.Info("ssh session opened", "term", "none")
	}

	chat, err := s.Sessions.NewSession(ctx, sessionID, out)
	if err != nil {
		log.Error("ssh session setup failed", "err", err)
		_, _ = io.WriteString(sess, "session setup failed\n")
		_ = sess.Exit(1)
		return
	}

	_, _ = io.WriteString(out, welcomeBanner)
	if err := chat.Begin(ctx); err != nil {
		log.Warn("ssh session begin failed", "err", err)
		chat.Close()
		_ = sess.Exit(1)
		return
	}
	for {
		line, err := readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("ssh session read ended", "err", err)
			}
			break
		}
		if err := chat.Handle(ctx, line); err != nil {
			log.Warn("ssh session input failed", "err", err)
			break
		}
	}
	chat.Close()
	log.Info("ssh session closed")
	_ = sess.Exit(0)
}

// shortID trims gliderlabs' hex session id to a readable length.
func shortID(id string) string {
	if len(id) > 16 {
		return id[:16]
	}
	return id
}
