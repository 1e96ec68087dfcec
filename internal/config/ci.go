package config

import "github.com/gkampitakis/ciinfo"

// FailEnabled returns whether findings should cause a non-zero exit
// based on the fail mode. "always" → true, "never" → false, "auto" →
// fail only when running in CI.
func FailEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return ciinfo.IsCI
	}
}

// CIName returns the detected CI provider name, or empty string if not in CI.
func CIName() string {
	if !ciinfo.IsCI {
		return ""
	}
	return ciinfo.Name
}
