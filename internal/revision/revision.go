// Package revision resolves the build date and source revision that stamp
// a firmware image.
package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/git"
)

// DateLayout is the build date format, YYYY.MM.DD.
const DateLayout = "2006.01.02"

// ErrToolUnavailable is returned when the date or source-control query
// fails or yields nothing usable. It is never retried.
var ErrToolUnavailable = errors.New("external tool unavailable")

// Source provides the two identity inputs.
type Source interface {
	CurrentDate(ctx context.Context) (string, error)
	CurrentRevision(ctx context.Context) (string, error)
}

// Resolve queries src for the date, then the revision. Both must succeed.
func Resolve(ctx context.Context, src Source) (date, rev string, err error) {
	date, err = src.CurrentDate(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve build date: %w", err)
	}
	if _, perr := time.Parse(DateLayout, date); perr != nil {
		return "", "", fmt.Errorf("resolve build date: %w: %q is not YYYY.MM.DD", ErrToolUnavailable, date)
	}

	rev, err = src.CurrentRevision(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve revision: %w", err)
	}
	if rev == "" {
		return "", "", fmt.Errorf("resolve revision: %w: empty revision", ErrToolUnavailable)
	}
	return date, rev, nil
}

type runner interface {
	UTCDate(ctx context.Context) (string, error)
	ShortRevision(ctx context.Context) (string, error)
}

var _ runner = (*git.Service)(nil)

// ShellSource asks the date utility and git.
type ShellSource struct {
	svc runner
	// preflight, when set, checks the tools are installed before the
	// first query so a missing binary is reported by name.
	preflight func() error
}

// NewShellSource returns a ShellSource running in dir.
func NewShellSource(dir string) *ShellSource {
	return &ShellSource{svc: git.NewService(dir), preflight: git.Available}
}

// CurrentDate implements Source.
func (s *ShellSource) CurrentDate(ctx context.Context) (string, error) {
	if s.preflight != nil {
		if err := s.preflight(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
		}
	}
	date, err := s.svc.UTCDate(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}
	return date, nil
}

// CurrentRevision implements Source.
func (s *ShellSource) CurrentRevision(ctx context.Context) (string, error) {
	rev, err := s.svc.ShortRevision(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}
	return rev, nil
}

// DefineSource reads values previously injected as preprocessor defines.
// A missing symbol surfaces as defines.ErrUndefinedSymbol.
type DefineSource struct {
	Table          defines.Table
	DateSymbol     string
	RevisionSymbol string
}

// CurrentDate implements Source.
func (s DefineSource) CurrentDate(_ context.Context) (string, error) {
	return s.Table.Unquoted(s.DateSymbol)
}

// CurrentRevision implements Source.
func (s DefineSource) CurrentRevision(_ context.Context) (string, error) {
	return s.Table.Unquoted(s.RevisionSymbol)
}
