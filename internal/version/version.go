package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/wemo-ssdp/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/wemo-ssdp/internal/version.Commit=abc123"
//
// Otherwise they are filled from VCS build info, falling back to "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populateFromBuildInfo reads the module version and vcs.revision from the
// binary's embedded build info.
func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		Commit = revision
		if dirty {
			Commit += "-dirty"
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s/%s)", Version, Commit, runtime.GOOS, runtime.GOARCH)
}
