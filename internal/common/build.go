package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version and GitCommit can be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func GetModuleBuildInfo() (string, string, bool) {
	if Version != "dev" {
		return Version, GitCommit, true
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		version := info.Main.Version
		var gitCommit string

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitCommit = setting.Value
				break
			}
		}

		return version, gitCommit, true
	}
	return "", "", false
}

// UserAgent identifies the client to the travel API.
func UserAgent() string {
	version, _, ok := GetModuleBuildInfo()
	if !ok || len(version) == 0 {
		version = "dev"
	}
	return fmt.Sprintf("travel-cli/%s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}
