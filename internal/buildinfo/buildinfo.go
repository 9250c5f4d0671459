// Package buildinfo holds the buildident binary's own version metadata.
// cmd/buildident forwards linker-injected values here through Set.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const (
	unsetVersion = "dev"
	unsetCommit  = "none"
	unsetValue   = "unknown"
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	BuiltBy string `json:"built_by"`
}

var current = Info{
	Version: unsetVersion,
	Commit:  unsetCommit,
	Date:    unsetValue,
	BuiltBy: unsetValue,
}

// Set stores the build metadata received from linker-injected variables.
func Set(version, commit, date, builtBy string) {
	current = Info{Version: version, Commit: commit, Date: date, BuiltBy: builtBy}
}

// Get returns the current metadata.
func Get() Info { return current }

// Version returns the build version string.
func Version() string { return current.Version }

// Commit returns the build commit hash.
func Commit() string { return current.Commit }

// String renders the metadata for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s by %s)", i.Version, i.Commit, i.Date, i.BuiltBy)
}

// Enrich fills unset commit and builder values from the module build
// info embedded by the Go toolchain.
func Enrich() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	enrichFrom(info)
}

func enrichFrom(info *debug.BuildInfo) {
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if current.Commit == unsetCommit {
		if rev := settings["vcs.revision"]; rev != "" {
			current.Commit = rev
		}
	}
	if current.Date == unsetValue {
		if t := settings["vcs.time"]; t != "" {
			current.Date = t
		}
	}
	if current.BuiltBy == unsetValue && info.GoVersion != "" {
		current.BuiltBy = info.GoVersion
	}
	if current.Version == unsetVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		current.Version = info.Main.Version
	}
}
