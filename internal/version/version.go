// Package version provides centralized version information for ctxlens.
package version

var (
	// Version is the semantic version of ctxlens.
	Version = "0.1.0"

	// Commit is the git commit hash (set at build time via -ldflags).
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time via -ldflags).
	BuildDate = "unknown"
)

// Info returns a short version string.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the complete version block.
func Full() string {
	return "ctxlens version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
