// Package version holds build metadata, set at link time with -ldflags -X.
package version

import "fmt"

var (
	// Version is the release version of pcv.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata for -version output and logs.
func String() string {
	return fmt.Sprintf("pcv %s (%s, built %s)", Version, GitSHA, BuildTime)
}
