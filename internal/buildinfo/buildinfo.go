// Package buildinfo holds the build metadata of the lazychangelist binary.
// main receives the linker-injected values and hands them over with Set.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Info describes one build.
type Info struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
}

// Placeholders left by a plain `go build`.
const (
	noCommit  = "none"
	noBuilder = "unknown"
)

var current = Info{Version: "dev", Commit: noCommit, Date: "unknown", BuiltBy: noBuilder}

// Set stores the linker-injected build metadata.
func Set(version, commit, date, builtBy string) {
	current = Info{Version: version, Commit: commit, Date: date, BuiltBy: builtBy}
}

// Current returns the metadata of the running binary.
func Current() Info { return current }

// String renders the build on one line with a shortened commit.
func (i Info) String() string {
	short := i.Commit
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("%s (commit %s, built %s by %s)", i.Version, short, i.Date, i.BuiltBy)
}

// Enrich replaces placeholders with what the Go toolchain embedded: the VCS
// revision and the Go version.
func Enrich() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	current = current.enrichedFrom(info)
}

func (i Info) enrichedFrom(info *debug.BuildInfo) Info {
	if i.Commit == noCommit {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				i.Commit = setting.Value
			}
		}
	}
	if i.BuiltBy == noBuilder && info.GoVersion != "" {
		i.BuiltBy = info.GoVersion
	}
	return i
}
