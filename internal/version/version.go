// Package version reports the buildfacts release version and the
// version of the linked BuildKit grammar parser.
package version

import (
	"runtime"
	"runtime/debug"
)

// Overridden at release time via -ldflags.
var version = "dev"

// Short returns the bare version string.
func Short() string {
	return version
}

// Version returns the version string, including the linked BuildKit
// version when build info is available.
func Version() string {
	if bk := BuildKitVersion(); bk != "" {
		return version + " (buildkit " + bk + ")"
	}
	return version
}

// Info describes the build for machine-readable version output.
type Info struct {
	Version   string `json:"version"`
	BuildKit  string `json:"buildkit,omitempty"`
	GoVersion string `json:"go_version"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	return Info{
		Version:   version,
		BuildKit:  BuildKitVersion(),
		GoVersion: runtime.Version(),
	}
}

// BuildKitVersion returns the linked BuildKit version from build info.
func BuildKitVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path == "github.com/moby/buildkit" {
			return dep.Version
		}
	}
	return ""
}
