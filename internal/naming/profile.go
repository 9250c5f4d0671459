// Package naming composes firmware artifact names from build identity.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "mitsuqtt"

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown naming profile")

var symbolPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Profile is one naming convention. The historical scripts disagree on
// these fields, so every one of them is configurable.
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// Product is the fixed project identifier that prefixes every name.
	Product string `yaml:"product" json:"product"`
	// FoldSeparators replaces every underscore in the final name with a hyphen.
	FoldSeparators bool `yaml:"fold_separators" json:"fold_separators"`
	// FilesystemSuffix enables the suffix for the non-default filesystem.
	FilesystemSuffix bool `yaml:"filesystem_suffix" json:"filesystem_suffix"`
	// SuffixLiteral is appended to the target id for the non-default filesystem.
	SuffixLiteral string `yaml:"suffix_literal" json:"suffix_literal"`
	// FilesystemMarker is the target id substring that selects the default
	// filesystem (SPIFFS).
	FilesystemMarker string `yaml:"filesystem_marker" json:"filesystem_marker"`
	// TestPrefix marks target ids that are never identity stamped.
	TestPrefix string `yaml:"test_prefix" json:"test_prefix"`
	// ProgNameSymbol is the define that carries the name into the image.
	ProgNameSymbol string `yaml:"progname_symbol" json:"progname_symbol"`
	// DateSymbol and RevisionSymbol hold pre-populated identity values.
	DateSymbol     string `yaml:"date_symbol" json:"date_symbol"`
	RevisionSymbol string `yaml:"revision_symbol" json:"revision_symbol"`
}

var builtins = map[string]Profile{
	"mitsuqtt": {
		Name:             "mitsuqtt",
		Description:      "Current naming: LittleFS builds carry a -LittleFS suffix, SPIFFS builds none.",
		Product:          "mitsuqtt",
		FilesystemSuffix: true,
		SuffixLiteral:    "-LittleFS",
		FilesystemMarker: "SPIFFS",
		TestPrefix:       "test",
		ProgNameSymbol:   "MITSUQTT_PROGNAME",
		DateSymbol:       "MITSUQTT_BUILD_DATE",
		RevisionSymbol:   "MITSUQTT_GIT_COMMIT",
	},
	"mitsuqtt-plain": {
		Name:             "mitsuqtt-plain",
		Description:      "Naming used before LittleFS support: no filesystem suffix at all.",
		Product:          "mitsuqtt",
		FilesystemSuffix: false,
		SuffixLiteral:    "-LittleFS",
		FilesystemMarker: "SPIFFS",
		TestPrefix:       "test",
		ProgNameSymbol:   "MITSUQTT_PROGNAME",
		DateSymbol:       "MITSUQTT_BUILD_DATE",
		RevisionSymbol:   "MITSUQTT_GIT_COMMIT",
	},
	"mitsubishi2mqtt": {
		Name:             "mitsubishi2mqtt",
		Description:      "Legacy mitsubishi2mqtt naming: no filesystem suffix, underscores folded to hyphens.",
		Product:          "mitsubishi2mqtt",
		FoldSeparators:   true,
		FilesystemSuffix: false,
		SuffixLiteral:    "-LittleFS",
		FilesystemMarker: "SPIFFS",
		TestPrefix:       "test",
		ProgNameSymbol:   "MITSUBISHI2MQTT_PROGNAME",
		DateSymbol:       "MITSUBISHI2MQTT_BUILD_DATE",
		RevisionSymbol:   "MITSUBISHI2MQTT_GIT_COMMIT",
	},
}

// Builtin returns the named built-in profile.
func Builtin(name string) (Profile, bool) {
	p, ok := builtins[name]
	return p, ok
}

// BuiltinNames returns the built-in profile names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports every problem with the profile at once.
func (p Profile) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(p.Name) == "" {
		result = multierror.Append(result, errors.New("name is required"))
	}
	if strings.TrimSpace(p.Product) == "" {
		result = multierror.Append(result, errors.New("product is required"))
	} else if strings.ContainsAny(p.Product, "/\\ \t") {
		result = multierror.Append(result, fmt.Errorf("product %q must not contain path separators or spaces", p.Product))
	}
	if p.FilesystemSuffix && p.SuffixLiteral == "" {
		result = multierror.Append(result, errors.New("suffix_literal is required when filesystem_suffix is enabled"))
	}
	if p.FilesystemMarker == "" {
		result = multierror.Append(result, errors.New("filesystem_marker is required"))
	}
	for field, symbol := range map[string]string{
		"progname_symbol": p.ProgNameSymbol,
		"date_symbol":     p.DateSymbol,
		"revision_symbol": p.RevisionSymbol,
	} {
		if !symbolPattern.MatchString(symbol) {
			result = multierror.Append(result, fmt.Errorf("%s %q is not a valid preprocessor symbol", field, symbol))
		}
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		sort.Strings(msgs)
		return fmt.Sprintf("invalid profile %q: %s", p.Name, strings.Join(msgs, "; "))
	}
	return result.ErrorOrNil()
}

// Registry resolves profile names to built-in or custom profiles.
type Registry struct {
	custom map[string]Profile
}

// NewRegistry returns a registry holding only the built-in profiles.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]Profile)}
}

// Register adds or replaces a custom profile after validating it.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.custom[p.Name] = p
	return nil
}

// Lookup returns the named profile; custom profiles shadow built-ins.
func (r *Registry) Lookup(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	if p, ok := r.custom[name]; ok {
		return p, nil
	}
	if p, ok := builtins[name]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
}

// Names returns every resolvable profile name, sorted.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, name := range BuiltinNames() {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range r.custom {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsCustom reports whether name resolves to a custom profile.
func (r *Registry) IsCustom(name string) bool {
	_, ok := r.custom[name]
	return ok
}
