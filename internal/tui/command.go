package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var aliases = map[string]string{
	"q":       "quit",
	"h":       "help",
	"logout":  "signout",
	"chats":   "conversations",
	"conv":    "conversations",
	"find":    "search",
	"net":     "feed",
	"notif":   "notifications",
	"me":      "profile",
	"refresh": "status",
}

// ParseCommand parses a command string (without the leading ':').
// Aliases resolve to their full name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		name = full
	}
	return Command{Name: name, Args: strings.TrimSpace(args)}
}
