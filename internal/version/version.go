// Package version reports build information set with -ldflags or recorded
// by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// GetFullVersion returns the version with a short commit when one is known.
func GetFullVersion() string {
	v, c := GetVersion(), GetCommit()
	if c != "unknown" && len(c) > 7 {
		return fmt.Sprintf("%s (%s)", v, c[:7])
	}
	return v
}
