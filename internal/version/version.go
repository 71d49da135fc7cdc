package version

import "fmt"

var (
	// Version is the release of the tool. Overridden via -ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the version string.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("deb-builder %s (commit %s, built %s)", Version, Commit, BuildTime)
}
