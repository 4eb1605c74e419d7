package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	mockGridWindow   = 1
	mockBufferWindow = 2
)

func newTerpMockCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "terp-mock [--protocol raw|glk] [--init] [interpreter flags] [game]",
		Short:              "Fake interpreter for tests and demos",
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseTerpMockArgs(args)
			if err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				return err
			}
			switch cfg.protocol {
			case "raw":
				return runRawMock(cfg.game, cmd.InOrStdin(), cmd.OutOrStdout())
			case "glk":
				return runGlkMock(cfg.game, cfg.init, cmd.InOrStdin(), cmd.OutOrStdout())
			default:
				err := fmt.Errorf("unsupported protocol %q", cfg.protocol)
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				return err
			}
		},
	}
}

type terpMockConfig struct {
	protocol string
	init     bool
	game     string
}

// parseTerpMockArgs accepts the flags real interpreters take, such as -fm
// and -width 60, and ignores them.
func parseTerpMockArgs(args []string) (terpMockConfig, error) {
	cfg := terpMockConfig{protocol: "raw", game: "mock"}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--protocol":
			if i+1 >= len(args) {
				return cfg, errors.New("--protocol requires a value")
			}
			i++
			cfg.protocol = args[i]
		case strings.HasPrefix(arg, "--protocol="):
			cfg.protocol = strings.TrimPrefix(arg, "--protocol=")
		case arg == "--init":
			cfg.init = true
		case arg == "-width" || arg == "-height" || arg == "-w" || arg == "-h":
			i++
		case strings.HasPrefix(arg, "-"):
		default:
			cfg.game = filepath.Base(arg)
		}
	}
	return cfg, nil
}

// mockReply is the room text for a command, shared by both protocols.
func mockReply(game string, command string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "":
		return "Time passes.", true
	case "look", "l":
		return "West of House\nYou are standing in an open field west of a white house.", true
	case "inventory", "i":
		return "You are empty-handed.", true
	case "quit", "q":
		return "", false
	default:
		return fmt.Sprintf("%s does not know the word %q.", game, strings.TrimSpace(command)), true
	}
}

func runRawMock(game string, stdin io.Reader, stdout io.Writer) error {
	writer := bufio.NewWriter(stdout)
	emit := func(text string) error {
		if _, err := writer.WriteString(text); err != nil {
			return err
		}
		return writer.Flush()
	}
	if err := emit(" West of House    Score: 0\n. \n" + strings.ToUpper(game) + "\nA mock adventure.\n\n>"); err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		command := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(command), "more") {
			if err := emit("\nThe story goes on and on.\n) "); err != nil {
				return err
			}
			continue
		}
		reply, ok := mockReply(game, command)
		if !ok {
			return emit("\nGoodbye.\n")
		}
		if err := emit("\n" + reply + "\n\n> >"); err != nil {
			return err
		}
	}
	return scanner.Err()
}

type mockEvent struct {
	Type     string `json:"type"`
	Gen      int    `json:"gen"`
	Value    string `json:"value"`
	Window   int    `json:"window"`
	Response string `json:"response"`
}

type mockGlk struct {
	game string
	gen  int
	enc  *json.Encoder
}

func runGlkMock(game string, expectInit bool, stdin io.Reader, stdout io.Writer) error {
	m := &mockGlk{game: game, enc: json.NewEncoder(stdout)}
	m.enc.SetEscapeHTML(false)
	dec := json.NewDecoder(stdin)
	if expectInit {
		var event mockEvent
		if err := dec.Decode(&event); err != nil {
			return fmt.Errorf("read init: %w", err)
		}
		if event.Type != "init" {
			return m.emitError(fmt.Sprintf("expected init, got %s", event.Type))
		}
	}
	if err := m.emitIntro(); err != nil {
		return err
	}
	for {
		var event mockEvent
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		done, err := m.handle(event)
		if err != nil || done {
			return err
		}
	}
}

func (m *mockGlk) handle(event mockEvent) (bool, error) {
	switch event.Type {
	case "line":
		command := strings.ToLower(strings.TrimSpace(event.Value))
		switch command {
		case "save":
			return false, m.emitUpdate(map[string]any{
				"specialinput": map[string]any{"type": "fileref_prompt", "filemode": "write", "filetype": "save"},
			})
		case "error":
			return false, m.emitError("boom")
		}
		reply, ok := mockReply(m.game, event.Value)
		if !ok {
			return true, m.emitUpdate(map[string]any{
				"content": []any{bufferText(event.Value, "Goodbye.")},
				"input":   []any{},
			})
		}
		return false, m.emitUpdate(map[string]any{
			"content": []any{statusLine(m.game), bufferText(event.Value, reply)},
			"input":   []any{m.lineInput()},
		})
	case "char":
		return false, m.emitUpdate(map[string]any{
			"content": []any{bufferText("", "You pressed "+event.Value+".")},
			"input":   []any{m.lineInput()},
		})
	case "specialresponse":
		return false, m.emitUpdate(map[string]any{
			"content": []any{bufferText("", "Saved to "+event.Value+".")},
			"input":   []any{m.lineInput()},
		})
	default:
		return false, m.emitError("unknown event " + event.Type)
	}
}

func (m *mockGlk) emitIntro() error {
	return m.emitUpdate(map[string]any{
		"windows": []any{
			map[string]any{"id": mockGridWindow, "type": "grid", "rock": 202, "gridwidth": 60, "gridheight": 1},
			map[string]any{"id": mockBufferWindow, "type": "buffer", "rock": 201},
		},
		"content": []any{statusLine(m.game), bufferText("", strings.ToUpper(m.game)+"\nA mock adventure.")},
		"input":   []any{m.lineInput()},
	})
}

func (m *mockGlk) emitUpdate(fields map[string]any) error {
	m.gen++
	fields["type"] = "update"
	fields["gen"] = m.gen
	return m.enc.Encode(fields)
}

func (m *mockGlk) emitError(message string) error {
	return m.enc.Encode(map[string]any{"type": "error", "message": message})
}

func (m *mockGlk) lineInput() map[string]any {
	return map[string]any{"id": mockBufferWindow, "gen": m.gen + 1, "type": "line", "maxlen": 256}
}

func statusLine(game string) map[string]any {
	return map[string]any{
		"id": mockGridWindow,
		"lines": []any{
			map[string]any{"line": 0, "content": []any{map[string]any{"style": "normal", "text": " " + game + "    Score: 0"}}},
		},
	}
}

// bufferText echoes the player's input in the input style, then the reply,
// one paragraph per line.
func bufferText(echo string, reply string) map[string]any {
	var paragraphs []any
	if echo != "" {
		paragraphs = append(paragraphs, map[string]any{
			"content": []any{map[string]any{"style": "input", "text": echo}},
		})
	}
	for _, line := range strings.Split(reply, "\n") {
		paragraphs = append(paragraphs, map[string]any{
			"content": []any{map[string]any{"style": "normal", "text": line}},
		})
	}
	return map[string]any{"id": mockBufferWindow, "text": paragraphs}
}
