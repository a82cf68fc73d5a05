// Package version carries build metadata stamped at link time via
// -ldflags "-X github.com/platformbuilds/prognos-core/internal/version.Version=...".
package version

var (
	Version   = "v1.4.0"
	GitCommit = "unknown"
	BuildTime = ""
)
