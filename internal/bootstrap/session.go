package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitsuqtt/buildident/internal/assets"
	"github.com/mitsuqtt/buildident/internal/buildenv"
	"github.com/mitsuqtt/buildident/internal/config"
	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/git"
	"github.com/mitsuqtt/buildident/internal/identity"
	"github.com/mitsuqtt/buildident/internal/log"
	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/mitsuqtt/buildident/internal/revision"
	"github.com/mitsuqtt/buildident/internal/theme"
	"github.com/mitsuqtt/buildident/internal/utils"
	urfavecli "github.com/urfave/cli/v3"
)

// errNoTarget is returned by commands that need a build target when
// neither --env nor PIOENV is set.
var errNoTarget = errors.New("no build target: pass --env or set PIOENV")

var (
	loadPlatformIOEnvFunc = config.LoadPlatformIOEnv
	newRevisionSourceFunc = func(dir string) revision.Source {
		return revision.NewShellSource(dir)
	}
	gitTopLevelFunc = func(ctx context.Context) (string, error) {
		return git.NewService("").TopLevel(ctx)
	}
)

// session is the resolved configuration for one command invocation.
type session struct {
	cfg        *config.AppConfig
	registry   *naming.Registry
	profile    naming.Profile
	sourcing   identity.Sourcing
	env        *buildenv.Env
	projectDir string
	revisions  revision.Source
	styles     theme.Styles
}

func stdout(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// newSession layers the configuration sources in order: defaults, YAML,
// git config, --config overrides, then the dedicated flags.
func newSession(ctx context.Context, cmd *urfavecli.Command) (*session, error) {
	log.Setup(stderr(cmd), cmd.Bool("verbose"))

	pio, err := loadPlatformIOEnvFunc()
	if err != nil {
		return nil, err
	}

	projectDir := firstNonEmpty(cmd.String("project-dir"), pio.ProjectDir)
	if projectDir == "" {
		if top, err := gitTopLevelFunc(ctx); err == nil {
			projectDir = top
		} else {
			log.Printf("session: no git top level: %v", err)
		}
	}
	if projectDir != "" {
		if projectDir, err = utils.ExpandPath(projectDir); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(cmd.String("config-file"), projectDir)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if overrides := cmd.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyCLIOverrides(overrides); err != nil {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
	}

	if debugLog := firstNonEmpty(cmd.String("debug-log"), cfg.DebugLog); debugLog != "" {
		expanded, err := utils.ExpandPath(debugLog)
		if err != nil {
			expanded = debugLog
		}
		if err := log.SetFile(expanded); err != nil {
			log.Warn("cannot open debug log", "path", expanded, "error", err)
		}
	}

	if v := cmd.String("profile"); v != "" {
		cfg.Profile = v
	}
	if v := cmd.String("source"); v != "" {
		cfg.Source = v
	}
	if v := cmd.String("theme"); v != "" {
		cfg.Theme = v
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	profile, err := registry.Lookup(cfg.Profile)
	if err != nil {
		return nil, err
	}
	sourcing, err := identity.ParseSourcing(cfg.Source)
	if err != nil {
		return nil, err
	}

	env := buildenv.New(firstNonEmpty(cmd.String("env"), pio.Env))
	env.ProjectDir = projectDir
	env.BuildDir = firstNonEmpty(cmd.String("build-dir"), pio.BuildDir)
	if pio.BuildFlags != "" {
		env.BuildFlags = append(env.BuildFlags, pio.BuildFlags)
	}
	env.BuildFlags = append(env.BuildFlags, cmd.StringSlice("build-flag")...)
	env.AppendDefines(cfg.Defines...)
	for _, arg := range cmd.StringSlice("define") {
		env.AppendDefines(defineArg(arg))
	}

	log.Printf("session: env=%q project=%q build=%q profile=%s source=%s config=%q",
		env.Name, env.ProjectDir, env.BuildDir, profile.Name, sourcing, cfg.Path)

	return &session{
		cfg:        cfg,
		registry:   registry,
		profile:    profile,
		sourcing:   sourcing,
		env:        env,
		projectDir: projectDir,
		revisions:  newRevisionSourceFunc(projectDir),
		styles:     theme.NewStyles(theme.GetTheme(cfg.Theme)),
	}, nil
}

// defineArg turns a --define value into a define entry: NAME becomes a
// bare symbol, NAME=VALUE a pair.
func defineArg(arg string) any {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return name
	}
	return defines.Pair{Name: name, Value: value}
}

func (s *session) requireTarget() error {
	if s.env.Name == "" {
		return errNoTarget
	}
	return nil
}

func (s *session) pipeline() *identity.Pipeline {
	return &identity.Pipeline{
		Profile:   s.profile,
		Sourcing:  s.sourcing,
		Revisions: s.revisions,
	}
}

func (s *session) registrar() assets.Registrar {
	return assets.Registrar{
		Root:         utils.ResolveUnder(s.projectDir, s.cfg.AssetRoot),
		Extensions:   s.cfg.AssetExtensions,
		BundleObject: s.cfg.BundleObject,
	}
}
