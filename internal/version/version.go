// Package version carries build-time version information.
package version

// Set at build time via -ldflags.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"

	// GitCommit is the git commit hash the binary was built from.
	GitCommit = "unknown"
)

// String returns the version with the commit hash when one is known.
func String() string {
	if GitCommit == "unknown" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
