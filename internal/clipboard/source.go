package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Source yields the current clipboard text. The platform clipboard is
// an external collaborator; this package only defines how to ask it.
type Source interface {
	Read(ctx context.Context) (string, error)
}

// CommandSource shells out to a command that prints the clipboard to
// stdout (ex: "xclip -selection clipboard -o", "pbpaste", "wl-paste").
type CommandSource struct {
	name string
	args []string
}

// NewCommandSource parses a command line into a source. Returns an
// error for a blank command so the caller can disable the watcher
// instead of polling a no-op.
func NewCommandSource(command string) (*CommandSource, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty clipboard command")
	}
	return &CommandSource{name: parts[0], args: parts[1:]}, nil
}

// Read runs the command and returns its stdout.
func (s *CommandSource) Read(ctx context.Context) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.name, s.args...)
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("clipboard command failed: %w", err)
	}
	return out.String(), nil
}
