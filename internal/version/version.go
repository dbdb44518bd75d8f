// Package version provides build-time version information.
package version

import "fmt"

// Set at build time with -ldflags "-X wallmap/internal/version.Version=...".
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for --version output.
func String(program string) string {
	return fmt.Sprintf("%s %s (%s, %s)", program, Version, GitCommit, BuildTime)
}
