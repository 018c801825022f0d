package handlers

import "strings"

// Command is a callsign addressed at a trigger plus the text that follows it.
type Command struct {
	Callsign string
	Content  string
}

// ParseCommand reads the leading callsign of a comment body. The callsign is the
// first whitespace-delimited token of the first non-empty line and must start
// with "/". It returns nil when the body does not start with a command.
func ParseCommand(body string) *Command {
	text := strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	firstLine, rest, _ := strings.Cut(text, "\n")

	fields := strings.Fields(firstLine)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || len(fields[0]) == 1 {
		return nil
	}

	callsign := fields[0]
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(firstLine), callsign))

	if rest = strings.TrimSpace(rest); rest != "" {
		if content != "" {
			content += "\n"
		}

		content += rest
	}

	return &Command{Callsign: callsign, Content: content}
}
