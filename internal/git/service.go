// Package git wraps the external commands buildident runs to learn about
// the working tree.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/mitsuqtt/buildident/internal/log"
)

// ErrCommandFailed is returned when an external command cannot be started
// or exits unsuccessfully.
var ErrCommandFailed = errors.New("command failed")

// LookupPath is used to find executables in PATH. Tests replace it to
// avoid depending on system binaries.
var LookupPath = exec.LookPath

// execCommandContext builds the process for an allowed command. Tests
// replace it to fake process output.
var execCommandContext = exec.CommandContext

// Service runs git and date queries against one working tree.
type Service struct {
	dir string
}

// NewService returns a Service rooted at dir. An empty dir means the
// process working directory.
func NewService(dir string) *Service {
	return &Service{dir: dir}
}

func prepareAllowedCommand(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "git":
		// #nosec G204 -- git arguments come from internal logic and are not shell interpolated
		return execCommandContext(ctx, "git", args[1:]...), nil
	case "date":
		// #nosec G204 -- date arguments are fixed format strings
		return execCommandContext(ctx, "date", args[1:]...), nil
	default:
		return nil, fmt.Errorf("unsupported command %q", args[0])
	}
}

// Run executes an allowed command and returns its trimmed stdout.
// Empty output is reported as an error; every caller needs a value.
func (s *Service) Run(ctx context.Context, args []string) (string, error) {
	command := strings.Join(args, " ")
	log.Printf("run: %s (cwd=%s)", command, s.dir)

	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}
	if s.dir != "" {
		cmd.Dir = s.dir
	}

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(string(exitErr.Stderr))
			if detail == "" {
				detail = fmt.Sprintf("exit %d", exitErr.ExitCode())
			}
			log.Printf("error: %s: %s", command, detail)
			return "", fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, detail)
		}
		log.Printf("error: %s: %v", command, err)
		return "", fmt.Errorf("%w: %s: %w", ErrCommandFailed, command, err)
	}

	out := strings.TrimSpace(string(output))
	if out == "" {
		return "", fmt.Errorf("%w: %s: empty output", ErrCommandFailed, command)
	}
	log.Printf("ok: %s -> %s", command, out)
	return out, nil
}

// ShortRevision returns the abbreviated hash of HEAD. It fails when the
// tree has no commits.
func (s *Service) ShortRevision(ctx context.Context) (string, error) {
	return s.Run(ctx, []string{"git", "rev-parse", "--short", "HEAD"})
}

// UTCDate returns today's UTC date as YYYY.MM.DD from the date utility.
func (s *Service) UTCDate(ctx context.Context) (string, error) {
	return s.Run(ctx, []string{"date", "-u", "+%Y.%m.%d"})
}

// TopLevel returns the root of the working tree.
func (s *Service) TopLevel(ctx context.Context) (string, error) {
	return s.Run(ctx, []string{"git", "rev-parse", "--show-toplevel"})
}

// Available reports whether both git and date can be found in PATH.
func Available() error {
	for _, name := range []string{"git", "date"} {
		if _, err := LookupPath(name); err != nil {
			return fmt.Errorf("%w: %s not found in PATH: %w", ErrCommandFailed, name, err)
		}
	}
	return nil
}
