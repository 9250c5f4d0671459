// Package theme provides the colour palettes for human-readable output.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colours used in text output.
type Theme struct {
	Accent    lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	SuccessFg lipgloss.Color
	WarnFg    lipgloss.Color
}

// Theme names.
const (
	DraculaName      = "dracula"
	DraculaLightName = "dracula-light"
	NordName         = "nord"
	NoneName         = "none"
)

// Dracula returns the Dracula theme (dark background, vibrant colors).
func Dracula() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#BD93F9"), // Purple
		MutedFg:   lipgloss.Color("#6272A4"), // Comment
		TextFg:    lipgloss.Color("#F8F8F2"), // Foreground
		SuccessFg: lipgloss.Color("#50FA7B"), // Green
		WarnFg:    lipgloss.Color("#FFB86C"), // Orange
	}
}

// DraculaLight returns the Dracula theme adapted for light backgrounds.
func DraculaLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#7C3AED"),
		MutedFg:   lipgloss.Color("#6E7781"),
		TextFg:    lipgloss.Color("#24292F"),
		SuccessFg: lipgloss.Color("#059669"),
		WarnFg:    lipgloss.Color("#D97706"),
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#88C0D0"),
		MutedFg:   lipgloss.Color("#4C566A"),
		TextFg:    lipgloss.Color("#ECEFF4"),
		SuccessFg: lipgloss.Color("#A3BE8C"),
		WarnFg:    lipgloss.Color("#EBCB8B"),
	}
}

// GetTheme returns the named theme, Dracula for unknown names, and nil
// for NoneName.
func GetTheme(name string) *Theme {
	switch name {
	case NoneName:
		return nil
	case DraculaLightName:
		return DraculaLight()
	case NordName:
		return Nord()
	default:
		return Dracula()
	}
}

// AvailableThemes returns the theme names, sorted.
func AvailableThemes() []string {
	names := []string{DraculaName, DraculaLightName, NordName, NoneName}
	sort.Strings(names)
	return names
}

// Styles are the rendered text styles for one theme.
type Styles struct {
	Heading lipgloss.Style
	Name    lipgloss.Style
	Muted   lipgloss.Style
	Value   lipgloss.Style
	Marker  lipgloss.Style
}

// NewStyles builds styles from t. A nil theme yields unstyled output.
func NewStyles(t *Theme) Styles {
	if t == nil {
		plain := lipgloss.NewStyle()
		return Styles{Heading: plain, Name: plain, Muted: plain, Value: plain, Marker: plain}
	}
	return Styles{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Name:    lipgloss.NewStyle().Bold(true).Foreground(t.TextFg),
		Muted:   lipgloss.NewStyle().Foreground(t.MutedFg),
		Value:   lipgloss.NewStyle().Foreground(t.SuccessFg),
		Marker:  lipgloss.NewStyle().Foreground(t.WarnFg),
	}
}
