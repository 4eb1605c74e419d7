package command

import (
	"strings"
)

// Command is a parsed slash command. Argument is the rest of the line after
// the name with inner spacing kept, so story names may contain spaces.
type Command struct {
	Name     string
	Argument string
}

// Parse parses a line and returns a Command if it starts with "/". The name
// is lowercased and a chat-style "@recipient" suffix (/start@bot) is removed.
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}
	body := strings.TrimSpace(trimmed[1:])
	name, argument := body, ""
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		name, argument = body[:i], strings.TrimSpace(body[i+1:])
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return Command{Name: strings.ToLower(name), Argument: argument}, true
}
