package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mitsuqtt/buildident/internal/assets"
	"github.com/mitsuqtt/buildident/internal/identity"
	"github.com/mitsuqtt/buildident/internal/log"
	urfavecli "github.com/urfave/cli/v3"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatSCons = "scons"
)

func nameCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "name",
		Usage:  "Print the artifact name for the build target (nothing for test targets)",
		Action: handleNameAction,
	}
}

func handleNameAction(ctx context.Context, cmd *urfavecli.Command) error {
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.requireTarget(); err != nil {
		return err
	}

	bc, err := s.pipeline().Run(ctx, s.env)
	if err != nil {
		return err
	}
	if bc.ArtifactName != "" {
		_, _ = fmt.Fprintln(stdout(cmd), bc.ArtifactName)
	}
	return nil
}

func flagsCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "flags",
		Usage:  "Print -D build flags carrying the build date and revision",
		Action: handleFlagsAction,
	}
}

func handleFlagsAction(ctx context.Context, cmd *urfavecli.Command) error {
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	flags, err := identity.Flags(ctx, s.profile, s.revisions)
	if err != nil {
		return err
	}
	out := stdout(cmd)
	for _, flag := range flags {
		_, _ = fmt.Fprintln(out, flag)
	}
	return nil
}

func injectCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "inject",
		Usage: "Name the build, register asset dependencies and print the resulting changes",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   formatText,
				Usage:   "Output format: text, json, yaml or scons",
			},
		},
		Action: handleInjectAction,
	}
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML, formatSCons:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s, %s, %s or %s)", format, formatText, formatJSON, formatYAML, formatSCons)
	}
}

func handleInjectAction(ctx context.Context, cmd *urfavecli.Command) error {
	format := cmd.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.requireTarget(); err != nil {
		return err
	}

	before := len(s.env.CPPDefines)
	bc, err := s.pipeline().Run(ctx, s.env)
	if err != nil {
		return err
	}
	if _, err := s.registrar().Register(s.env); err != nil {
		return err
	}

	report := newInjectReport(bc, s.env, s.env.CPPDefines[before:])
	out := stdout(cmd)
	switch format {
	case formatJSON:
		return writeJSON(out, report)
	case formatYAML:
		return writeYAML(out, report)
	case formatSCons:
		return writeSCons(out, report)
	default:
		return writeInjectText(out, report)
	}
}

func depsCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "deps",
		Usage: "List the asset files the bundle object depends on",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
			&urfavecli.BoolFlag{
				Name:  "icons",
				Usage: "Show file icons (needs a Nerd Font)",
			},
		},
		Action: handleDepsAction,
	}
}

func handleDepsAction(ctx context.Context, cmd *urfavecli.Command) error {
	if cmd.Bool("json") && cmd.Bool("icons") {
		return fmt.Errorf("--json and --icons are mutually exclusive")
	}
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	edges, err := s.registrar().Register(s.env)
	if err != nil {
		return err
	}

	out := stdout(cmd)
	if cmd.Bool("json") {
		return writeJSON(out, edgesJSON(edges))
	}
	icons := s.cfg.ShowIcons || cmd.Bool("icons")
	return writeDepsText(out, s.styles, s.projectDir, edges, icons)
}

func watchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "watch",
		Usage:  "Report template and stylesheet edits that make the bundle object stale",
		Action: handleWatchAction,
	}
}

func handleWatchAction(ctx context.Context, cmd *urfavecli.Command) error {
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registrar := s.registrar()
	watcher := assets.NewWatcher(registrar, s.env.Subst(registrar.BundleObject))
	changes, err := watcher.Start(ctx)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	log.Info("watching assets", "root", registrar.Root, "extensions", registrar.Extensions)

	out := stdout(cmd)
	for change := range changes {
		_, _ = fmt.Fprintf(out, "%s %s -> %s\n", change.Op, change.Path, change.Target)
	}
	return nil
}

func profilesCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "profiles",
		Usage: "List the naming profiles",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: handleProfilesAction,
	}
}

func handleProfilesAction(ctx context.Context, cmd *urfavecli.Command) error {
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	out := stdout(cmd)
	if cmd.Bool("json") {
		return writeJSON(out, s.profileList())
	}
	return writeProfilesText(out, s.styles, s.profileList(), terminalWidth(out))
}
