// Package buildinfo contains build-time metadata injected via -ldflags,
// separate from user configuration.
package buildinfo

import "fmt"

// Version holds the Git version tag from build. Overridden at build time:
//
//	go build -ldflags "-X github.com/camsentry/camsentry/internal/buildinfo.Version=v1.2.3"
var Version = "dev"

// BuildDate is the time when the binary was built.
var BuildDate = "unknown"

// String returns a single-line description of this build.
func String() string {
	return fmt.Sprintf("camsentry %s (built %s)", Version, BuildDate)
}
