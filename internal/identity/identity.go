// Package identity stamps a build with its artifact name: it resolves the
// date and revision, composes the name, and writes it back into the
// build configuration.
package identity

import (
	"context"
	"fmt"

	"github.com/mitsuqtt/buildident/internal/buildenv"
	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/log"
	"github.com/mitsuqtt/buildident/internal/models"
	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/mitsuqtt/buildident/internal/revision"
)

// Sourcing selects where the date and revision come from.
type Sourcing string

const (
	// SourceResolve queries the date utility and git.
	SourceResolve Sourcing = "resolve"
	// SourceDefines reads values already present in the define set.
	SourceDefines Sourcing = "defines"
)

// ParseSourcing validates a sourcing name. Empty means SourceResolve.
func ParseSourcing(s string) (Sourcing, error) {
	switch Sourcing(s) {
	case "", SourceResolve:
		return SourceResolve, nil
	case SourceDefines:
		return SourceDefines, nil
	default:
		return "", fmt.Errorf("unknown source %q (want %s or %s)", s, SourceResolve, SourceDefines)
	}
}

// Pipeline runs the naming stages for one build invocation.
type Pipeline struct {
	Profile  naming.Profile
	Sourcing Sourcing
	// Revisions backs SourceResolve.
	Revisions revision.Source
}

// Run names the build and injects the name into env. Test targets return
// their context untouched and leave env alone.
func (p *Pipeline) Run(ctx context.Context, env *buildenv.Env) (models.BuildContext, error) {
	bc := p.Profile.NewContext(env.Name)
	if bc.IsTestTarget {
		log.Info("test target, keeping default program name", "env", env.Name, "progname", env.ProgName)
		return bc, nil
	}

	src, err := p.source(env)
	if err != nil {
		return bc, err
	}

	bc.BuildDate, bc.RevisionID, err = revision.Resolve(ctx, src)
	if err != nil {
		return bc, err
	}
	log.Printf("identity: env=%s filesystem=%s date=%s revision=%s", bc.TargetID, bc.Filesystem, bc.BuildDate, bc.RevisionID)

	if _, err := p.Profile.Stamp(&bc); err != nil {
		return bc, err
	}
	Inject(env, p.Profile, bc)
	return bc, nil
}

func (p *Pipeline) source(env *buildenv.Env) (revision.Source, error) {
	switch p.Sourcing {
	case SourceDefines:
		raw, err := env.Defines()
		if err != nil {
			return nil, fmt.Errorf("extract defines: %w", err)
		}
		table, err := defines.Extract(raw)
		if err != nil {
			return nil, fmt.Errorf("extract defines: %w", err)
		}
		log.Printf("identity: defines %v", table.Symbols())
		return revision.DefineSource{
			Table:          table,
			DateSymbol:     p.Profile.DateSymbol,
			RevisionSymbol: p.Profile.RevisionSymbol,
		}, nil
	case SourceResolve, "":
		if p.Revisions == nil {
			return nil, fmt.Errorf("%w: no revision source configured", revision.ErrToolUnavailable)
		}
		return p.Revisions, nil
	default:
		return nil, fmt.Errorf("unknown source %q", p.Sourcing)
	}
}

// Inject replaces the program name and appends the progname define.
// Re-injecting overwrites the name; the define list gains another
// binding, and the later one wins on lookup.
func Inject(env *buildenv.Env, profile naming.Profile, bc models.BuildContext) {
	if bc.IsTestTarget || bc.ArtifactName == "" {
		return
	}
	env.Replace(bc.ArtifactName)
	env.AppendDefines(defines.Pair{Name: profile.ProgNameSymbol, Value: defines.Quote(bc.ArtifactName)})
	log.Info("stamped build", "env", bc.TargetID, "progname", bc.ArtifactName, "define", profile.ProgNameSymbol)
}

// Flags resolves the date and revision and renders them as -D build
// flags that a later SourceDefines run reads back.
func Flags(ctx context.Context, profile naming.Profile, src revision.Source) ([]string, error) {
	date, rev, err := revision.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return []string{
		defines.Flag(profile.DateSymbol, date),
		defines.Flag(profile.RevisionSymbol, rev),
	}, nil
}
