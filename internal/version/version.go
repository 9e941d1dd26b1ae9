// Package version provides build version information for prepare-release.
// These variables are set at build time via ldflags.
// Example: go build -ldflags "-X github.com/MyCarrier-DevOps/prepare-release/internal/version.Version=v1.2.3".
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release of the binary ("dev" for development builds).
	Version = "dev"

	// Commit is the git commit SHA of the build.
	Commit = "none"

	// Date is the build date in ISO format.
	Date = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolved returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String formats the full build description printed by the version command.
func String() string {
	return fmt.Sprintf("prepare-release %s (commit %s, built %s)", Resolved(), Commit, Date)
}
