// Package bootstrap wires the buildident command tree.
package bootstrap

import (
	"strings"

	"github.com/mitsuqtt/buildident/internal/identity"
	"github.com/mitsuqtt/buildident/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns the flags shared by every command.
// Note: --version is provided automatically by urfave/cli via Command.Version
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Build target identifier (default: $PIOENV)",
		},
		&urfavecli.StringFlag{
			Name:  "project-dir",
			Usage: "Project root (default: $PROJECT_DIR, then the git top level)",
		},
		&urfavecli.StringFlag{
			Name:  "build-dir",
			Usage: "Build directory substituted for $BUILD_DIR (default: $BUILD_DIR)",
		},
		&urfavecli.StringSliceFlag{
			Name:  "build-flag",
			Usage: "Raw compiler flags to parse for defines (repeatable, appended to $PLATFORMIO_BUILD_FLAGS)",
		},
		&urfavecli.StringSliceFlag{
			Name:    "define",
			Aliases: []string{"D"},
			Usage:   "Extra define NAME or NAME=VALUE (repeatable)",
		},
		&urfavecli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Naming profile",
		},
		&urfavecli.StringFlag{
			Name:  "source",
			Usage: "Where the date and revision come from: " + string(identity.SourceResolve) + " or " + string(identity.SourceDefines),
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Colour theme for text output (" + strings.Join(theme.AvailableThemes(), ", ") + ")",
		},
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=bi.key=value",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log every external command",
		},
	}
}
