// Package version reports which sitesearch build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the program name. It prefixes the version string and the
// User-Agent sent with page and index requests.
const Name = "sitesearch"

// Set with -ldflags "-X github.com/Aman-CERP/sitesearch/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GoVersion is the toolchain the binary was built with.
var GoVersion = runtime.Version()

func init() {
	if Commit != "unknown" {
		return
	}
	// go install builds carry VCS stamps even without ldflags.
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

// BuildInfo is the JSON form of the version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String is the one-line version shown by `sitesearch version`.
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, Version, Commit, Date, GoVersion)
}

// Short returns Version.
func Short() string { return Version }

// UserAgent is "sitesearch/<version>".
func UserAgent() string { return Name + "/" + Version }

// GetInfo collects the build and platform details.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
