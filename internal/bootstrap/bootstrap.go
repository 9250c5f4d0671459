package bootstrap

import (
	"context"
	"fmt"

	"github.com/mitsuqtt/buildident/internal/buildinfo"
	"github.com/mitsuqtt/buildident/internal/log"
	urfavecli "github.com/urfave/cli/v3"
)

// NewApp returns the root command.
func NewApp() *urfavecli.Command {
	return &urfavecli.Command{
		Name:    "buildident",
		Usage:   "Stamp firmware builds with a dated, revision-tagged artifact name",
		Version: buildinfo.Get().String(),
		Flags:   globalFlags(),
		// Defines and overrides carry commas in their values.
		DisableSliceFlagSeparator: true,
		EnableShellCompletion:     true,
		Commands: []*urfavecli.Command{
			nameCommand(),
			flagsCommand(),
			injectCommand(),
			depsCommand(),
			watchCommand(),
			profilesCommand(),
		},
		After: func(_ context.Context, _ *urfavecli.Command) error {
			return log.Close()
		},
	}
}

// Run executes the command tree with args (os.Args shaped).
func Run(ctx context.Context, args []string) error {
	if err := NewApp().Run(ctx, args); err != nil {
		return fmt.Errorf("buildident: %w", err)
	}
	return nil
}
