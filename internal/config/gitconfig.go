package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitsuqtt/buildident/internal/git"
	"github.com/mitsuqtt/buildident/internal/log"
)

const (
	gitSection     = "buildident"
	overridePrefix = "bi."
)

// gitScope is one git config file consulted for buildident.* keys.
type gitScope string

const (
	scopeGlobal gitScope = "--global"
	scopeLocal  gitScope = "--local"
)

// gitRunner runs a git subcommand in dir. Tests replace it.
var gitRunner = func(ctx context.Context, dir string, args []string) (string, error) {
	return git.NewService(dir).Run(ctx, append([]string{"git"}, args...))
}

// readGitLayer returns the buildident.* keys of one scope in the shape
// parseConfig reads: one value stays a string, repeated keys become a
// list. git exits non-zero when nothing matches, which reads as an
// empty layer.
func readGitLayer(ctx context.Context, scope gitScope, dir string) map[string]any {
	out, err := gitRunner(ctx, dir, []string{"config", string(scope), "--get-regexp", `^` + gitSection + `\.`})
	if err != nil {
		log.Printf("config: git %s layer skipped: %v", scope, err)
		return map[string]any{}
	}
	return foldGitValues(out)
}

// gitKeys maps git variable names to config keys. git rejects underscores
// in variable names and lowercases them, so buildident.assetRoot is listed
// as buildident.assetroot.
var gitKeys = map[string]string{
	"assetroot":       "asset_root",
	"assetextensions": "asset_extensions",
	"bundleobject":    "bundle_object",
	"debuglog":        "debug_log",
	"showicons":       "show_icons",
}

// foldGitValues parses "section.key value" lines. Values may contain
// spaces; lines without a value are ignored.
func foldGitValues(output string) map[string]any {
	layer := make(map[string]any)
	for line := range strings.Lines(output) {
		name, value, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, gitSection+"."))
		if mapped, ok := gitKeys[key]; ok {
			key = mapped
		}
		addValue(layer, key, value)
	}
	return layer
}

// addValue sets key, turning it into a list when it is seen again.
func addValue(layer map[string]any, key, value string) {
	switch prev := layer[key].(type) {
	case string:
		layer[key] = []any{prev, value}
	case []any:
		layer[key] = append(prev, value)
	default:
		layer[key] = value
	}
}

// localGitDir returns the directory to read local git config from, or ""
// when neither projectDir nor the working directory is inside a repository.
func localGitDir(ctx context.Context, projectDir string) string {
	for _, dir := range []string{projectDir, "."} {
		if dir == "" {
			continue
		}
		if _, err := gitRunner(ctx, dir, []string{"rev-parse", "--git-dir"}); err == nil {
			return dir
		}
	}
	return ""
}

// gitLayers returns the global layer, then the local one when available.
func gitLayers(ctx context.Context, projectDir string) []map[string]any {
	layers := []map[string]any{readGitLayer(ctx, scopeGlobal, "")}
	if dir := localGitDir(ctx, projectDir); dir != "" {
		layers = append(layers, readGitLayer(ctx, scopeLocal, dir))
	}
	return layers
}

// parseCLIConfigOverrides reads --config=bi.key=value arguments. A key
// given more than once becomes a list.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	layer := make(map[string]any)
	for _, override := range overrides {
		fullKey, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config override: %q, expected format: bi.key=value (note: use = not space)", override)
		}
		key, ok := strings.CutPrefix(fullKey, overridePrefix)
		if !ok {
			return nil, fmt.Errorf("config override key must start with '%s': %q", overridePrefix, fullKey)
		}
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}
		addValue(layer, key, value)
	}
	return layer, nil
}
