package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/glkbridge/internal/logx"
	"pkt.systems/glkbridge/internal/version"
	"pkt.systems/glkbridge/schema"
)

// ErrUnknownCommand is returned for slash commands no handler exists for.
var ErrUnknownCommand = errors.New("unknown command")

// MessageUnsupported answers commands the bridge knows but does not offer.
// Saving and restoring go through the game's own save and restore verbs.
const MessageUnsupported = "I don't support this command yet. Sorry!"

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	// ReservedWords are bare inputs that must be typed as slash commands.
	// Each maps to the command it is reserved for.
	ReservedWords       map[string]string
	DisableAuditLogging bool
}

// StoryEntry is one line of the /stories listing.
type StoryEntry struct {
	Name        schema.StoryName
	Interpreter schema.InterpreterName
	Active      bool
}

// Target is the session a Handler operates on.
type Target interface {
	// Enter sends an empty line of input.
	Enter(ctx context.Context) error
	// Quit stops the interpreter.
	Quit(ctx context.Context) error
	// Restart relaunches the current story.
	Restart(ctx context.Context) error
	// Start launches story. An empty name asks the player to choose.
	Start(ctx context.Context, story schema.StoryName) error
	Stories() []StoryEntry
	// Print writes lines to the player.
	Print(lines ...string)
}

// Handler routes slash commands to session operations.
type Handler struct {
	target Target
	cfg    HandlerConfig
}

// DefaultReservedWords returns the bare words answered with a hint.
func DefaultReservedWords() map[string]string {
	return map[string]string{"quit": "quit"}
}

// NewHandler constructs a command handler.
func NewHandler(target Target, cfg HandlerConfig) *Handler {
	if cfg.ReservedWords == nil {
		cfg.ReservedWords = DefaultReservedWords()
	}
	return &Handler{target: target, cfg: cfg}
}

// Handle inspects input and executes slash commands. It reports false when
// input should be sent to the interpreter.
func (h *Handler) Handle(ctx context.Context, sessionID schema.SessionID, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	log := logx.WithSession(ctx, sessionID).With("input_len", len(input))
	if name, ok := h.reserved(input); ok {
		log.Info("command reserved word", "command", name)
		h.target.Print(fmt.Sprintf("Use the /%s command instead", name))
		return true, nil
	}
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "slash", "command", strings.TrimSpace(input))
	}
	log = log.With("command", cmd.Name, "argument", cmd.Argument)
	log.Info("command slash request")
	var err error
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return true, fmt.Errorf("invalid command")
	case "enter":
		err = h.target.Enter(ctx)
	case "quit":
		err = h.target.Quit(ctx)
	case "restart":
		err = h.target.Restart(ctx)
	case "stories":
		h.target.Print(storyLines(h.target.Stories())...)
	case "start":
		err = h.target.Start(ctx, schema.StoryName(cmd.Argument))
	case "save", "restore":
		h.target.Print(MessageUnsupported)
	case "help":
		h.target.Print(helpLines()...)
	case "version":
		h.target.Print(version.Summary())
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return true, fmt.Errorf("%w: /%s", ErrUnknownCommand, cmd.Name)
	}
	if err != nil {
		log.Warn("command failed", "err", err)
		return true, err
	}
	log.Info("command completed")
	return true, nil
}

func (h *Handler) reserved(input string) (string, bool) {
	word := strings.ToLower(strings.TrimSpace(input))
	if word == "" {
		return "", false
	}
	name, ok := h.cfg.ReservedWords[word]
	return name, ok
}

func storyLines(stories []StoryEntry) []string {
	if len(stories) == 0 {
		return []string{"no stories configured"}
	}
	lines := make([]string, 0, len(stories))
	for _, story := range stories {
		marker := "  "
		if story.Active {
			marker = "* "
		}
		line := marker + string(story.Name)
		if story.Interpreter != "" {
			line += " (" + string(story.Interpreter) + ")"
		}
		lines = append(lines, line)
	}
	return lines
}

func helpLines() []string {
	return []string{
		"Commands",
		"/enter - send an empty line (continue after [press /enter to continue])",
		"/quit - stop the interpreter",
		"/restart - restart the current story",
		"/stories - list stories",
		"/start [story] - start a story, or choose one from the list",
		"/save, /restore - not supported; use the game's own SAVE and RESTORE",
		"/version - show version information",
		"/help - show this list",
	}
}
