// Package buildenv models the build tool's configuration object for one
// build invocation. Pipeline stages receive an *Env and mutate it in place.
package buildenv

import (
	"os"
	"sort"
	"strings"

	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/models"
)

// DefaultProgName is the output base name the build tool uses when nothing
// replaces it.
const DefaultProgName = "firmware"

// Env is the build configuration object. It is not safe for concurrent use.
type Env struct {
	// Name is the build target identifier (PIOENV).
	Name       string
	ProjectDir string
	BuildDir   string
	// ProgName is the output artifact base name, without extension.
	ProgName string
	// BuildFlags holds raw compiler flag strings as configured.
	BuildFlags []string
	// CPPDefines holds defines appended after flag parsing, in mixed shapes.
	CPPDefines []any

	edges map[string]map[string]struct{}
}

// New returns an Env for the named target with the default program name.
func New(name string) *Env {
	return &Env{
		Name:     name,
		ProgName: DefaultProgName,
		edges:    make(map[string]map[string]struct{}),
	}
}

// Replace overwrites the output artifact base name.
func (e *Env) Replace(progName string) {
	e.ProgName = progName
}

// AppendDefines adds define entries after any existing ones.
func (e *Env) AppendDefines(entries ...any) {
	e.CPPDefines = append(e.CPPDefines, entries...)
}

// Defines returns the full define list: entries parsed from the
// build flags first, then the appended CPPDefines.
func (e *Env) Defines() ([]any, error) {
	parsed, err := defines.ParseFlags(e.BuildFlags)
	if err != nil {
		return nil, err
	}
	return append(parsed, e.CPPDefines...), nil
}

// Depends declares that target must be rebuilt when source changes. It
// reports whether the edge is new; repeated declarations are collapsed.
func (e *Env) Depends(target, source string) bool {
	if e.edges == nil {
		e.edges = make(map[string]map[string]struct{})
	}
	target = e.Subst(target)
	sources, ok := e.edges[target]
	if !ok {
		sources = make(map[string]struct{})
		e.edges[target] = sources
	}
	if _, exists := sources[source]; exists {
		return false
	}
	sources[source] = struct{}{}
	return true
}

// Dependencies returns every declared edge sorted by target then source.
func (e *Env) Dependencies() []models.DependencyEdge {
	var out []models.DependencyEdge
	for target, sources := range e.edges {
		for source := range sources {
			out = append(out, models.DependencyEdge{Target: target, Source: source})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Subst expands $PIOENV, $PROJECT_DIR and $BUILD_DIR (also in ${} form).
// Unknown variables are left as written.
func (e *Env) Subst(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(key string) string {
		switch key {
		case "PIOENV":
			return e.Name
		case "PROJECT_DIR":
			return e.ProjectDir
		case "BUILD_DIR":
			if e.BuildDir != "" {
				return e.BuildDir
			}
		}
		return "$" + key
	})
}
