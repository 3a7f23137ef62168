// Package synchook invokes the external subtitle timing-alignment step.
// The alignment algorithm itself is an opaque external tool; failures here
// are logged and never undo an already-saved subtitle.
package synchook

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Syncer is the external sync contract.
type Syncer interface {
	Sync(ctx context.Context, videoPath, subtitlePath, languageHint string) error
}

// Nop skips synchronization entirely.
type Nop struct{}

func (Nop) Sync(context.Context, string, string, string) error { return nil }

// Command runs a configured external command with the video path, subtitle
// path and language appended as arguments.
type Command struct {
	command string
	args    []string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewCommand creates a command-based syncer.
func NewCommand(command string, args []string, timeout time.Duration, logger zerolog.Logger) *Command {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Command{
		command: command,
		args:    args,
		timeout: timeout,
		logger:  logger.With().Str("component", "synchook").Logger(),
	}
}

// Sync implements Syncer.
func (c *Command) Sync(ctx context.Context, videoPath, subtitlePath, languageHint string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), videoPath, subtitlePath, languageHint)
	cmd := exec.CommandContext(ctx, c.command, args...)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("sync command failed: %w (output: %s)", err, string(output))
	}

	c.logger.Info().
		Str("subtitle", subtitlePath).
		Str("language", languageHint).
		Dur("elapsed", time.Since(start)).
		Msg("Subtitle synchronized")
	return nil
}
