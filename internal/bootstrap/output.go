package bootstrap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	devicons "github.com/epilande/go-devicons"
	"github.com/mitsuqtt/buildident/internal/buildenv"
	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/models"
	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/mitsuqtt/buildident/internal/theme"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	defaultWidth = 80
	minWrapWidth = 40
)

type defineJSON struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

type edgeJSON struct {
	Target string `json:"target" yaml:"target"`
	Source string `json:"source" yaml:"source"`
}

// injectReport is the machine-readable result of the inject command.
type injectReport struct {
	Target       string       `json:"target" yaml:"target"`
	TestTarget   bool         `json:"test_target" yaml:"test_target"`
	Filesystem   string       `json:"filesystem" yaml:"filesystem"`
	BuildDate    string       `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	Revision     string       `json:"revision,omitempty" yaml:"revision,omitempty"`
	ProgName     string       `json:"progname" yaml:"progname"`
	Renamed      bool         `json:"renamed" yaml:"renamed"`
	Defines      []defineJSON `json:"defines" yaml:"defines"`
	Dependencies []edgeJSON   `json:"dependencies" yaml:"dependencies"`
}

func newInjectReport(bc models.BuildContext, env *buildenv.Env, injected []any) injectReport {
	report := injectReport{
		Target:       bc.TargetID,
		TestTarget:   bc.IsTestTarget,
		Filesystem:   bc.Filesystem.String(),
		BuildDate:    bc.BuildDate,
		Revision:     bc.RevisionID,
		ProgName:     env.ProgName,
		Renamed:      bc.ArtifactName != "",
		Defines:      make([]defineJSON, 0, len(injected)),
		Dependencies: edgesJSON(env.Dependencies()),
	}
	for _, entry := range injected {
		report.Defines = append(report.Defines, describeDefine(entry))
	}
	return report
}

func describeDefine(entry any) defineJSON {
	switch v := entry.(type) {
	case defines.Pair:
		return defineJSON{Name: v.Name, Value: v.Value}
	case string:
		return defineJSON{Name: v}
	default:
		return defineJSON{Name: fmt.Sprint(v)}
	}
}

func edgesJSON(edges []models.DependencyEdge) []edgeJSON {
	out := make([]edgeJSON, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeJSON{Target: e.Target, Source: e.Source})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeSCons prints the mutations as statements an extra_script can exec
// against its construction environment.
func writeSCons(w io.Writer, r injectReport) error {
	if r.TestTarget {
		if _, err := fmt.Fprintf(w, "# %s is a test target, PROGNAME unchanged\n", r.Target); err != nil {
			return err
		}
	}
	if r.Renamed {
		if _, err := fmt.Fprintf(w, "env.Replace(PROGNAME=%s)\n", strconv.Quote(r.ProgName)); err != nil {
			return err
		}
	}
	for _, d := range r.Defines {
		var line string
		if d.Value == "" {
			line = fmt.Sprintf("env.Append(CPPDEFINES=[%s])\n", strconv.Quote(d.Name))
		} else {
			line = fmt.Sprintf("env.Append(CPPDEFINES=[(%s, %s)])\n", strconv.Quote(d.Name), strconv.Quote(d.Value))
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	for _, e := range r.Dependencies {
		if _, err := fmt.Fprintf(w, "env.Depends(%s, %s)\n", strconv.Quote(e.Target), strconv.Quote(e.Source)); err != nil {
			return err
		}
	}
	return nil
}

func writeInjectText(w io.Writer, r injectReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "target\t%s\n", r.Target)
	fmt.Fprintf(tw, "filesystem\t%s\n", r.Filesystem)
	if r.TestTarget {
		fmt.Fprintf(tw, "progname\t%s (test target, unchanged)\n", r.ProgName)
	} else {
		fmt.Fprintf(tw, "date\t%s\n", r.BuildDate)
		fmt.Fprintf(tw, "revision\t%s\n", r.Revision)
		fmt.Fprintf(tw, "progname\t%s\n", r.ProgName)
	}
	for _, d := range r.Defines {
		if d.Value == "" {
			fmt.Fprintf(tw, "define\t%s\n", d.Name)
			continue
		}
		fmt.Fprintf(tw, "define\t%s=%s\n", d.Name, d.Value)
	}
	for _, e := range r.Dependencies {
		fmt.Fprintf(tw, "depends\t%s <- %s\n", e.Target, e.Source)
	}
	return tw.Flush()
}

type iconFileInfo struct {
	name string
}

func (i iconFileInfo) Name() string       { return i.name }
func (i iconFileInfo) Size() int64        { return 0 }
func (i iconFileInfo) Mode() os.FileMode  { return 0 }
func (i iconFileInfo) ModTime() time.Time { return time.Time{} }
func (i iconFileInfo) IsDir() bool        { return false }
func (i iconFileInfo) Sys() any           { return nil }

func deviconForName(name string) string {
	if name == "" {
		return ""
	}
	return devicons.IconForInfo(iconFileInfo{name: name}).Icon
}

func iconWithSpace(icon string) string {
	if icon == "" {
		return ""
	}
	return icon + " "
}

// writeDepsText groups the edges by target and lists sources relative to
// the project directory.
func writeDepsText(w io.Writer, styles theme.Styles, projectDir string, edges []models.DependencyEdge, icons bool) error {
	if len(edges) == 0 {
		_, err := fmt.Fprintln(w, styles.Muted.Render("no asset dependencies"))
		return err
	}

	current := ""
	for _, e := range edges {
		if e.Target != current {
			current = e.Target
			if _, err := fmt.Fprintln(w, styles.Heading.Render(e.Target)); err != nil {
				return err
			}
		}
		source := e.Source
		if projectDir != "" {
			if rel, err := filepath.Rel(projectDir, e.Source); err == nil && !strings.HasPrefix(rel, "..") {
				source = rel
			}
		}
		prefix := "  "
		if icons {
			prefix += iconWithSpace(deviconForName(filepath.Base(e.Source)))
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, styles.Value.Render(source)); err != nil {
			return err
		}
	}
	return nil
}

type profileEntry struct {
	naming.Profile `yaml:",inline"`
	Custom         bool `json:"custom" yaml:"custom"`
	Default        bool `json:"default" yaml:"default"`
}

func (s *session) profileList() []profileEntry {
	names := s.registry.Names()
	out := make([]profileEntry, 0, len(names))
	for _, name := range names {
		p, err := s.registry.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, profileEntry{
			Profile: p,
			Custom:  s.registry.IsCustom(name),
			Default: name == s.profile.Name,
		})
	}
	return out
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

func writeProfilesText(w io.Writer, styles theme.Styles, profiles []profileEntry, width int) error {
	wrapWidth := max(width-4, minWrapWidth)

	for i, p := range profiles {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		header := styles.Name.Render(p.Name)
		if p.Default {
			header += " " + styles.Marker.Render("(selected)")
		}
		if p.Custom {
			header += " " + styles.Muted.Render("[custom]")
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if p.Description != "" {
			desc := indent.String(wordwrap.String(p.Description, wrapWidth), 4)
			if _, err := fmt.Fprintln(w, styles.Muted.Render(desc)); err != nil {
				return err
			}
		}
		example := exampleName(p.Profile)
		if _, err := fmt.Fprintf(w, "    %s %s\n", styles.Muted.Render("e.g."), styles.Value.Render(example)); err != nil {
			return err
		}
	}
	return nil
}

// exampleName renders a sample name for a LittleFS target.
func exampleName(p naming.Profile) string {
	bc := p.NewContext("esp32_dev")
	bc.BuildDate = "2024.01.02"
	bc.RevisionID = "abc1234"
	name, err := p.Compose(bc)
	if err != nil || name == "" {
		return "-"
	}
	return name
}
