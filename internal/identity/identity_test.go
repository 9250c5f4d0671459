package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/mitsuqtt/buildident/internal/buildenv"
	"github.com/mitsuqtt/buildident/internal/defines"
	"github.com/mitsuqtt/buildident/internal/naming"
	"github.com/mitsuqtt/buildident/internal/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	date, rev string
	err       error
	calls     int
}

func (f *fakeSource) CurrentDate(context.Context) (string, error) {
	f.calls++
	return f.date, f.err
}

func (f *fakeSource) CurrentRevision(context.Context) (string, error) {
	f.calls++
	return f.rev, f.err
}

func profile(t *testing.T, name string) naming.Profile {
	t.Helper()
	p, ok := naming.Builtin(name)
	require.True(t, ok)
	return p
}

func TestParseSourcing(t *testing.T) {
	s, err := ParseSourcing("")
	require.NoError(t, err)
	assert.Equal(t, SourceResolve, s)

	s, err = ParseSourcing("defines")
	require.NoError(t, err)
	assert.Equal(t, SourceDefines, s)

	_, err = ParseSourcing("cache")
	assert.Error(t, err)
}

func TestRunResolve(t *testing.T) {
	src := &fakeSource{date: "2024.03.01", rev: "a1b2c3d"}
	p := &Pipeline{Profile: profile(t, "mitsuqtt"), Sourcing: SourceResolve, Revisions: src}
	env := buildenv.New("esp12e")

	bc, err := p.Run(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, "mitsuqtt-esp12e-LittleFS-2024.03.01-a1b2c3d", bc.ArtifactName)
	assert.Equal(t, bc.ArtifactName, env.ProgName)
	assert.Equal(t, []any{
		defines.Pair{Name: "MITSUQTT_PROGNAME", Value: `\"mitsuqtt-esp12e-LittleFS-2024.03.01-a1b2c3d\"`},
	}, env.CPPDefines)
}

func TestRunFromDefines(t *testing.T) {
	p := &Pipeline{Profile: profile(t, "mitsuqtt"), Sourcing: SourceDefines}
	env := buildenv.New("esp12e_SPIFFS")
	env.BuildFlags = []string{`-DESP8266 '-DMITSUQTT_BUILD_DATE="2024.03.01"' '-DMITSUQTT_GIT_COMMIT="a1b2c3d"'`}

	bc, err := p.Run(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "mitsuqtt-esp12e_SPIFFS-2024.03.01-a1b2c3d", bc.ArtifactName)
	assert.Equal(t, bc.ArtifactName, env.ProgName)
}

func TestRunFromDefinesMissingSymbol(t *testing.T) {
	p := &Pipeline{Profile: profile(t, "mitsuqtt"), Sourcing: SourceDefines}
	env := buildenv.New("esp12e")
	env.BuildFlags = []string{`'-DMITSUQTT_BUILD_DATE="2024.03.01"'`}

	_, err := p.Run(context.Background(), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, defines.ErrUndefinedSymbol)
	assert.Equal(t, buildenv.DefaultProgName, env.ProgName, "no unstamped fallback name")
	assert.Empty(t, env.CPPDefines)
}

func TestRunTestTargetBypass(t *testing.T) {
	src := &fakeSource{date: "2024.03.01", rev: "a1b2c3d"}
	p := &Pipeline{Profile: profile(t, "mitsuqtt"), Revisions: src}
	env := buildenv.New("test_esp12e")

	bc, err := p.Run(context.Background(), env)
	require.NoError(t, err)
	assert.True(t, bc.IsTestTarget)
	assert.Empty(t, bc.ArtifactName)
	assert.Equal(t, buildenv.DefaultProgName, env.ProgName)
	assert.Empty(t, env.CPPDefines)
	assert.Zero(t, src.calls, "test targets never query external tools")
}

func TestRunExternalToolFailure(t *testing.T) {
	src := &fakeSource{err: revision.ErrToolUnavailable}
	p := &Pipeline{Profile: profile(t, "mitsuqtt"), Revisions: src}
	env := buildenv.New("esp12e")

	_, err := p.Run(context.Background(), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, revision.ErrToolUnavailable)
	assert.Equal(t, buildenv.DefaultProgName, env.ProgName)
}

func TestRunWithoutSource(t *testing.T) {
	p := &Pipeline{Profile: profile(t, "mitsuqtt")}
	_, err := p.Run(context.Background(), buildenv.New("esp12e"))
	assert.ErrorIs(t, err, revision.ErrToolUnavailable)
}

func TestInjectTwice(t *testing.T) {
	prof := profile(t, "mitsuqtt")
	env := buildenv.New("esp12e")
	bc := prof.NewContext("esp12e")
	bc.BuildDate = "2024.03.01"
	bc.RevisionID = "a1b2c3d"
	_, err := prof.Stamp(&bc)
	require.NoError(t, err)

	Inject(env, prof, bc)
	Inject(env, prof, bc)

	assert.Equal(t, bc.ArtifactName, env.ProgName)
	assert.Len(t, env.CPPDefines, 2)

	raw, err := env.Defines()
	require.NoError(t, err)
	table, err := defines.Extract(raw)
	require.NoError(t, err)
	name, err := table.Unquoted("MITSUQTT_PROGNAME")
	require.NoError(t, err)
	assert.Equal(t, bc.ArtifactName, name)
}

func TestInjectTestTargetIsNoop(t *testing.T) {
	prof := profile(t, "mitsuqtt")
	env := buildenv.New("test_native")
	bc := prof.NewContext("test_native")
	bc.ArtifactName = "should-not-be-used"

	Inject(env, prof, bc)
	assert.Equal(t, buildenv.DefaultProgName, env.ProgName)
	assert.Empty(t, env.CPPDefines)
}

func TestFlags(t *testing.T) {
	flags, err := Flags(context.Background(), profile(t, "mitsuqtt"), &fakeSource{date: "2024.03.01", rev: "a1b2c3d"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`'-DMITSUQTT_BUILD_DATE="2024.03.01"'`,
		`'-DMITSUQTT_GIT_COMMIT="a1b2c3d"'`,
	}, flags)

	_, err = Flags(context.Background(), profile(t, "mitsuqtt"), &fakeSource{err: errors.New("git: not found")})
	assert.Error(t, err)
}

func TestFlagsRoundTripThroughDefines(t *testing.T) {
	prof := profile(t, "mitsubishi2mqtt")
	flags, err := Flags(context.Background(), prof, &fakeSource{date: "2024.03.01", rev: "a1b2c3d"})
	require.NoError(t, err)

	env := buildenv.New("esp32_dev")
	env.BuildFlags = flags
	bc, err := (&Pipeline{Profile: prof, Sourcing: SourceDefines}).Run(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "mitsubishi2mqtt-esp32-dev-2024.03.01-a1b2c3d", bc.ArtifactName)
}
