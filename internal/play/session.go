// Package play runs one line-oriented chat with an interpreter: player
// lines go in, cleaned-up transcript comes out.
package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/command"
	"pkt.systems/glkbridge/internal/logx"
	"pkt.systems/glkbridge/schema"
)

// Messages shown to the player.
const (
	MessageNoOutput      = "<no output>"
	MessageCommError     = "<Error during communication with the interpreter>"
	MessageLaunchFailed  = "Couldn't run interpreter. Maybe wrong architecture?"
	MessageChooseStory   = "What game would you like to play?"
	MessageUnknownStory  = "Don't know this one. Choose another."
	MessageStopped       = "Stopped. Use /start to start a new session"
	MessageNoPrompt      = "<The interpreter is not waiting for input>"
	MessageUnknownInput  = "I beg your pardon?"
	MessageStoryFinished = "<The story has ended. Use /restart or /start>"
)

// Requester builds launch requests for an interpreter.
type Requester interface {
	Request(name schema.InterpreterName, gameFile string, savefilePrefix string) (core.LaunchRequest, error)
}

// Config describes the stories a session can play.
type Config struct {
	SessionID    schema.SessionID
	Stories      []schema.Story
	DefaultStory schema.StoryName
	// SaveDir holds save files; each session writes under its own prefix.
	SaveDir       string
	ReservedWords map[string]string
}

// Session is one player's chat. Handle must be called from a single
// goroutine; Close may be called from any goroutine.
type Session struct {
	id        schema.SessionID
	registry  *core.Registry
	requester Requester
	cfg       Config
	handler   *command.Handler

	mu  sync.Mutex
	out io.Writer

	story     schema.Story
	selecting bool
}

// NewSession constructs a session writing transcript to out.
func NewSession(registry *core.Registry, requester Requester, out io.Writer, cfg Config) (*Session, error) {
	if registry == nil {
		return nil, errors.New("play: registry is required")
	}
	if requester == nil {
		return nil, errors.New("play: requester is required")
	}
	if out == nil {
		return nil, errors.New("play: output writer is required")
	}
	if cfg.SessionID == "" {
		return nil, errors.New("play: session id is required")
	}
	s := &Session{
		id:        cfg.SessionID,
		registry:  registry,
		requester: requester,
		cfg:       cfg,
		out:       out,
	}
	s.handler = command.NewHandler(s, command.HandlerConfig{ReservedWords: cfg.ReservedWords})
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() schema.SessionID {
	return s.id
}

// Story returns the selected story.
func (s *Session) Story() schema.Story {
	return s.story
}

// Begin starts the default story, or asks the player to choose one.
func (s *Session) Begin(ctx context.Context) error {
	return s.Start(ctx, s.cfg.DefaultStory)
}

// Handle processes one line of player input.
func (s *Session) Handle(ctx context.Context, line string) error {
	line = strings.TrimRight(line, "\r\n")
	handled, err := s.handler.Handle(ctx, s.id, line)
	if err != nil {
		if errors.Is(err, command.ErrUnknownCommand) {
			s.Print(MessageUnknownInput)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Print(fmt.Sprintf("error: %v", err))
		return nil
	}
	if handled {
		return nil
	}
	if s.selecting {
		return s.Start(ctx, schema.StoryName(strings.TrimSpace(line)))
	}
	return s.send(ctx, line)
}

// Enter sends an empty line, dismissing a more prompt.
func (s *Session) Enter(ctx context.Context) error {
	return s.send(ctx, "")
}

// Quit stops the interpreter.
func (s *Session) Quit(ctx context.Context) error {
	s.selecting = false
	if s.registry.Close(s.id) {
		logx.WithSession(ctx, s.id).Info("play stopped")
	}
	s.Print(MessageStopped)
	return nil
}

// Restart relaunches the selected story.
func (s *Session) Restart(ctx context.Context) error {
	if s.story.Name == "" {
		return s.Start(ctx, "")
	}
	return s.launch(ctx, s.story)
}

// Start launches story by name. An empty or unknown name lists the stories
// and treats the next plain line as the choice.
func (s *Session) Start(ctx context.Context, name schema.StoryName) error {
	if name == "" {
		s.choose(MessageChooseStory)
		return nil
	}
	story, ok := s.lookup(name)
	if !ok {
		logx.WithSession(ctx, s.id).Info("play story unknown", "story", name)
		s.choose(MessageUnknownStory)
		return nil
	}
	return s.launch(ctx, story)
}

// Stories lists the configured stories.
func (s *Session) Stories() []command.StoryEntry {
	entries := make([]command.StoryEntry, 0, len(s.cfg.Stories))
	for _, story := range s.cfg.Stories {
		entries = append(entries, command.StoryEntry{
			Name:        story.Name,
			Interpreter: story.Interpreter,
			Active:      story.Name == s.story.Name && s.running(),
		})
	}
	return entries
}

// Print writes lines to the player.
func (s *Session) Print(lines ...string) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		_, _ = io.WriteString(s.out, line+"\n")
	}
}

// Close stops the interpreter without writing to the player.
func (s *Session) Close() {
	s.registry.Close(s.id)
}

// SavefilePrefix returns the path prefix save files of this session get.
func (s *Session) SavefilePrefix() string {
	if s.cfg.SaveDir == "" {
		return string(s.id) + "_"
	}
	return filepath.Join(s.cfg.SaveDir, string(s.id)+"_")
}

func (s *Session) choose(header string) {
	s.selecting = true
	lines := []string{header}
	for _, story := range s.cfg.Stories {
		lines = append(lines, "  "+string(story.Name))
	}
	s.Print(lines...)
}

func (s *Session) lookup(name schema.StoryName) (schema.Story, bool) {
	for _, story := range s.cfg.Stories {
		if story.Name == name {
			return story, true
		}
	}
	for _, story := range s.cfg.Stories {
		if strings.EqualFold(string(story.Name), string(name)) {
			return story, true
		}
	}
	return schema.Story{}, false
}

func (s *Session) running() bool {
	_, err := s.registry.Get(s.id)
	return err == nil
}

func (s *Session) launch(ctx context.Context, story schema.Story) error {
	s.selecting = false
	s.story = story
	log := logx.WithStory(logx.WithSession(ctx, s.id), story)
	ctx = logx.ContextWithSessionStoryLogger(ctx, log, s.id, story.Name)

	if s.cfg.SaveDir != "" {
		if err := os.MkdirAll(s.cfg.SaveDir, 0o755); err != nil {
			log.Warn("play save dir unavailable", "path", s.cfg.SaveDir, "err", err)
		}
	}
	req, err := s.requester.Request(story.Interpreter, story.File, s.SavefilePrefix())
	if err != nil {
		log.Error("play launch request failed", "err", err)
		s.Print(MessageLaunchFailed)
		return nil
	}
	backend, err := s.registry.Open(ctx, s.id, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Print(MessageLaunchFailed)
		return nil
	}
	log.Info("play started")
	output, err := backend.Get(ctx)
	return s.deliver(ctx, output, err)
}

func (s *Session) send(ctx context.Context, text string) error {
	backend, err := s.registry.Get(s.id)
	if err != nil {
		s.Print(MessageStopped)
		return nil
	}
	if backend.PromptKind() == schema.PromptNone {
		s.Print(MessageStoryFinished)
		return nil
	}
	output, err := backend.Send(ctx, text)
	return s.deliver(ctx, output, err)
}

// deliver renders a backend result. Fatal backend errors drop the backend.
func (s *Session) deliver(ctx context.Context, output []string, err error) error {
	if err != nil {
		log := logx.WithSessionStory(ctx, s.id, s.story.Name)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case core.IsKind(err, core.BackendErrorNoPrompt):
			log.Debug("play input without prompt")
			s.Print(MessageNoPrompt)
			return nil
		case core.IsFatal(err):
			log.Warn("play backend failed", "err", err)
			s.registry.Close(s.id)
			s.Print(MessageCommError)
			return nil
		default:
			return err
		}
	}
	s.Print(Render(output))
	return nil
}

// Render joins window texts with a blank line, skipping empty ones.
func Render(output []string) string {
	parts := make([]string, 0, len(output))
	for _, text := range output {
		text = strings.TrimRight(text, "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return MessageNoOutput
	}
	return strings.Join(parts, "\n\n")
}

var _ command.Target = (*Session)(nil)
