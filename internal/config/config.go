// Package config loads buildident configuration from YAML, git config,
// the PlatformIO environment and command-line overrides.
package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitsuqtt/buildident/internal/assets"
	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/mitsuqtt/buildident/internal/utils"
	"gopkg.in/yaml.v3"
)

// AppConfig defines the buildident configuration options.
type AppConfig struct {
	Profile         string // Naming profile name (default: "mitsuqtt")
	Source          string // Identity sourcing: "resolve" or "defines"
	AssetRoot       string
	AssetExtensions []string
	BundleObject    string
	DebugLog        string
	ShowIcons       bool // Render file icons in deps output (default: false)
	Theme           string
	// Defines are extra preprocessor defines in mixed shapes.
	Defines []any
	// Profiles are custom naming profiles keyed by name.
	Profiles map[string]naming.Profile
	// Path is the file the config was read from, if any.
	Path string `yaml:"-"`

	raw map[string]any
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Profile:         naming.DefaultProfile,
		Source:          "resolve",
		AssetRoot:       assets.DefaultRoot,
		AssetExtensions: append([]string(nil), assets.DefaultExtensions...),
		BundleObject:    assets.DefaultBundleObject,
		Theme:           "dracula",
		Profiles:        map[string]naming.Profile{},
		raw:             map[string]any{},
	}
}

func normalizeStringList(value any) []string {
	if value == nil {
		return []string{}
	}

	switch v := value.(type) {
	case string:
		out := []string{}
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		out := []string{}
		for _, item := range v {
			if item == nil {
				continue
			}
			text := strings.TrimSpace(fmt.Sprintf("%v", item))
			if text != "" {
				out = append(out, text)
			}
		}
		return out
	}
	return []string{}
}

func normalizeExtensions(list []string) []string {
	out := make([]string, 0, len(list))
	for _, ext := range list {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceString(data map[string]any, key string, target *string) {
	if value, ok := data[key].(string); ok {
		value = strings.TrimSpace(value)
		if value != "" {
			*target = value
		}
	}
}

func parseProfile(name string, data map[string]any) (naming.Profile, error) {
	baseName := naming.DefaultProfile
	coerceString(data, "base", &baseName)
	p, ok := naming.Builtin(baseName)
	if !ok {
		return naming.Profile{}, fmt.Errorf("profile %q: %w: base %q", name, naming.ErrUnknownProfile, baseName)
	}

	p.Name = name
	coerceString(data, "description", &p.Description)
	coerceString(data, "product", &p.Product)
	coerceString(data, "suffix_literal", &p.SuffixLiteral)
	coerceString(data, "filesystem_marker", &p.FilesystemMarker)
	coerceString(data, "progname_symbol", &p.ProgNameSymbol)
	coerceString(data, "date_symbol", &p.DateSymbol)
	coerceString(data, "revision_symbol", &p.RevisionSymbol)
	if prefix, ok := data["test_prefix"].(string); ok {
		p.TestPrefix = strings.TrimSpace(prefix)
	}
	p.FoldSeparators = coerceBool(data["fold_separators"], p.FoldSeparators)
	p.FilesystemSuffix = coerceBool(data["filesystem_suffix"], p.FilesystemSuffix)

	if err := p.Validate(); err != nil {
		return naming.Profile{}, err
	}
	return p, nil
}

func parseProfiles(value any) (map[string]naming.Profile, error) {
	profiles := map[string]naming.Profile{}
	raw, ok := value.(map[string]any)
	if !ok {
		return profiles, nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data, ok := raw[name].(map[string]any)
		if !ok {
			data = map[string]any{}
		}
		p, err := parseProfile(name, data)
		if err != nil {
			return nil, err
		}
		profiles[name] = p
	}
	return profiles, nil
}

func parseDefines(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case string:
		var out []any
		for _, item := range normalizeStringList(v) {
			name, val, ok := strings.Cut(item, "=")
			if ok {
				out = append(out, []any{name, val})
			} else {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

func parseConfig(data map[string]any) (*AppConfig, error) {
	cfg := DefaultConfig()
	cfg.raw = data

	coerceString(data, "profile", &cfg.Profile)
	coerceString(data, "asset_root", &cfg.AssetRoot)
	coerceString(data, "bundle_object", &cfg.BundleObject)
	coerceString(data, "debug_log", &cfg.DebugLog)
	coerceString(data, "theme", &cfg.Theme)

	if source, ok := data["source"].(string); ok {
		source = strings.ToLower(strings.TrimSpace(source))
		switch source {
		case "resolve", "defines":
			cfg.Source = source
		default:
			return nil, fmt.Errorf("invalid source %q; allowed: resolve, defines", source)
		}
	}

	if _, ok := data["asset_extensions"]; ok {
		exts := normalizeStringList(data["asset_extensions"])
		if len(exts) > 0 {
			cfg.AssetExtensions = normalizeExtensions(exts)
		}
	}

	cfg.ShowIcons = coerceBool(data["show_icons"], false)
	cfg.Defines = parseDefines(data["defines"])

	profiles, err := parseProfiles(data["profiles"])
	if err != nil {
		return nil, err
	}
	cfg.Profiles = profiles

	return cfg, nil
}

// Registry returns a naming registry with the custom profiles registered.
func (c *AppConfig) Registry() (*naming.Registry, error) {
	r := naming.NewRegistry()
	for _, p := range c.Profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ApplyCLIOverrides merges --config=bi.key=value overrides on top of the
// loaded values.
func (c *AppConfig) ApplyCLIOverrides(overrides []string) error {
	parsed, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	if len(parsed) == 0 {
		return nil
	}

	merged := make(map[string]any, len(c.raw)+len(parsed))
	maps.Copy(merged, c.raw)
	maps.Copy(merged, parsed)

	updated, err := parseConfig(merged)
	if err != nil {
		return err
	}
	updated.Path = c.Path
	*c = *updated
	return nil
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func candidatePaths(configPath, projectDir string) ([]string, error) {
	if configPath != "" {
		expanded, err := utils.ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		return []string{absPath}, nil
	}

	var paths []string
	if projectDir != "" {
		paths = append(paths,
			filepath.Join(projectDir, "buildident.yaml"),
			filepath.Join(projectDir, "buildident.yml"),
		)
	}
	configBase := filepath.Join(getConfigDir(), "buildident")
	paths = append(paths,
		filepath.Join(configBase, "config.yaml"),
		filepath.Join(configBase, "config.yml"),
	)
	return paths, nil
}

// LoadConfig reads the configuration. An explicit configPath must exist;
// otherwise the first file found in projectDir or the user config
// directory is used. git config values (buildident.*) override the file.
func LoadConfig(configPath, projectDir string) (*AppConfig, error) {
	paths, err := candidatePaths(configPath, projectDir)
	if err != nil {
		return DefaultConfig(), err
	}

	data := map[string]any{}
	found := ""
	for _, path := range paths {
		// #nosec G304 -- path is chosen by the user or a fixed config location
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && configPath == "" {
				continue
			}
			return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(content, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if yamlData != nil {
			data = yamlData
		}
		found = path
		break
	}

	for _, layer := range gitLayers(context.Background(), projectDir) {
		maps.Copy(data, layer)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return DefaultConfig(), err
	}
	cfg.Path = found
	return cfg, nil
}
