// Package version holds build metadata stamped by the release pipeline
// through -ldflags "-X ...". Binaries built without ldflags report the
// defaults below.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
)

// String renders "version (commit)" for banners and CLI output.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
