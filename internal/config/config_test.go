package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noGitConfig(t *testing.T) {
	t.Helper()
	mockGitConfig(t, func(_ []string, _ string) (string, error) { return "", nil })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "mitsuqtt", cfg.Profile)
	assert.Equal(t, "resolve", cfg.Source)
	assert.Equal(t, "src/frontend", cfg.AssetRoot)
	assert.Equal(t, []string{".mst", ".css"}, cfg.AssetExtensions)
	assert.Equal(t, "$BUILD_DIR/src/frontend/templates.cpp.o", cfg.BundleObject)
	assert.False(t, cfg.ShowIcons)
	assert.Empty(t, cfg.Defines)
	assert.Empty(t, cfg.Profiles)
}

func TestNormalizeStringList(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{name: "nil", input: nil, expected: []string{}},
		{name: "comma separated", input: ".mst, .css", expected: []string{".mst", ".css"}},
		{name: "list", input: []any{".mst", nil, " ", ".css"}, expected: []string{".mst", ".css"}},
		{name: "unsupported", input: 3, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeStringList(tt.input))
		})
	}
}

func TestCoerceBool(t *testing.T) {
	assert.True(t, coerceBool("yes", false))
	assert.True(t, coerceBool(1, false))
	assert.False(t, coerceBool("off", true))
	assert.True(t, coerceBool("maybe", true))
	assert.False(t, coerceBool(nil, false))
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(map[string]any{
		"profile":          "mitsubishi2mqtt",
		"source":           "DEFINES",
		"asset_root":       "web/src",
		"asset_extensions": []any{"mst", ".css", "html"},
		"bundle_object":    "$BUILD_DIR/web/bundle.cpp.o",
		"show_icons":       "true",
		"defines":          []any{"ESP8266", []any{"LOG_LEVEL", 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, "mitsubishi2mqtt", cfg.Profile)
	assert.Equal(t, "defines", cfg.Source)
	assert.Equal(t, "web/src", cfg.AssetRoot)
	assert.Equal(t, []string{".mst", ".css", ".html"}, cfg.AssetExtensions)
	assert.Equal(t, "$BUILD_DIR/web/bundle.cpp.o", cfg.BundleObject)
	assert.True(t, cfg.ShowIcons)
	assert.Equal(t, []any{"ESP8266", []any{"LOG_LEVEL", 3}}, cfg.Defines)
}

func TestParseConfigRejectsUnknownSource(t *testing.T) {
	_, err := parseConfig(map[string]any{"source": "cache"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestParseDefinesFromString(t *testing.T) {
	assert.Equal(t, []any{"ESP8266", []any{"LOG_LEVEL", "3"}}, parseDefines("ESP8266,LOG_LEVEL=3"))
	assert.Nil(t, parseDefines(nil))
}

func TestParseProfiles(t *testing.T) {
	cfg, err := parseConfig(map[string]any{
		"profiles": map[string]any{
			"nightly": map[string]any{
				"product":     "mitsuqtt_nightly",
				"fold":        "ignored",
				"test_prefix": "",
			},
			"legacy-dev": map[string]any{
				"base":            "mitsubishi2mqtt",
				"progname_symbol": "M2M_PROGNAME",
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Profiles, 2)

	nightly := cfg.Profiles["nightly"]
	assert.Equal(t, "nightly", nightly.Name)
	assert.Equal(t, "mitsuqtt_nightly", nightly.Product)
	assert.True(t, nightly.FilesystemSuffix, "inherits from the default profile")
	assert.Empty(t, nightly.TestPrefix)
	assert.False(t, nightly.IsTestTarget("test_esp12e"))

	legacy := cfg.Profiles["legacy-dev"]
	assert.Equal(t, "mitsubishi2mqtt", legacy.Product)
	assert.True(t, legacy.FoldSeparators)
	assert.Equal(t, "M2M_PROGNAME", legacy.ProgNameSymbol)

	registry, err := cfg.Registry()
	require.NoError(t, err)
	p, err := registry.Lookup("legacy-dev")
	require.NoError(t, err)
	assert.Equal(t, legacy, p)
}

func TestParseProfilesErrors(t *testing.T) {
	_, err := parseConfig(map[string]any{
		"profiles": map[string]any{"x": map[string]any{"base": "nope"}},
	})
	assert.ErrorIs(t, err, naming.ErrUnknownProfile)

	_, err = parseConfig(map[string]any{
		"profiles": map[string]any{"x": map[string]any{"progname_symbol": "not valid"}},
	})
	assert.Error(t, err)
}

func TestLoadConfigFromProject(t *testing.T) {
	noGitConfig(t)
	project := t.TempDir()
	path := writeConfig(t, project, "buildident.yaml", `
profile: mitsuqtt-plain
asset_root: frontend
defines:
  - ESP8266
  - [LOG_LEVEL, "3"]
`)

	cfg, err := LoadConfig("", project)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "mitsuqtt-plain", cfg.Profile)
	assert.Equal(t, "frontend", cfg.AssetRoot)
	assert.Len(t, cfg.Defines, 2)
}

func TestLoadConfigYMLFallback(t *testing.T) {
	noGitConfig(t)
	project := t.TempDir()
	writeConfig(t, project, "buildident.yml", "source: defines\n")

	cfg, err := LoadConfig("", project)
	require.NoError(t, err)
	assert.Equal(t, "defines", cfg.Source)
}

func TestLoadConfigUserDir(t *testing.T) {
	mockGitConfig(t, func(_ []string, _ string) (string, error) { return "", nil })
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "buildident"), 0o750))
	writeConfig(t, filepath.Join(xdg, "buildident"), "config.yaml", "show_icons: true\n")

	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.ShowIcons)
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	noGitConfig(t)

	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, DefaultConfig().Profile, cfg.Profile)
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	noGitConfig(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	noGitConfig(t)
	path := writeConfig(t, t.TempDir(), "bad.yaml", "profile: [unterminated\n")

	_, err := LoadConfig(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfigGitOverridesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	mockGitConfig(t, func(args []string, _ string) (string, error) {
		for _, arg := range args {
			if arg == "--local" {
				return "buildident.profile mitsubishi2mqtt\n", nil
			}
		}
		return "buildident.showicons yes\n", nil
	})
	project := t.TempDir()
	writeConfig(t, project, "buildident.yaml", "profile: mitsuqtt-plain\nasset_root: web\n")

	cfg, err := LoadConfig("", project)
	require.NoError(t, err)
	assert.Equal(t, "mitsubishi2mqtt", cfg.Profile)
	assert.True(t, cfg.ShowIcons)
	assert.Equal(t, "web", cfg.AssetRoot)
}

func TestApplyCLIOverrides(t *testing.T) {
	cfg, err := parseConfig(map[string]any{"asset_root": "web", "profile": "mitsuqtt-plain"})
	require.NoError(t, err)
	cfg.Path = "/proj/buildident.yaml"

	require.NoError(t, cfg.ApplyCLIOverrides([]string{"bi.profile=mitsubishi2mqtt", "bi.show_icons=true"}))
	assert.Equal(t, "mitsubishi2mqtt", cfg.Profile)
	assert.True(t, cfg.ShowIcons)
	assert.Equal(t, "web", cfg.AssetRoot, "unrelated keys survive")
	assert.Equal(t, "/proj/buildident.yaml", cfg.Path)

	assert.Error(t, cfg.ApplyCLIOverrides([]string{"bi.source=bogus"}))
	assert.Error(t, cfg.ApplyCLIOverrides([]string{"profile=x"}))
	assert.NoError(t, cfg.ApplyCLIOverrides(nil))
}
