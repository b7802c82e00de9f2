// Package version holds build metadata for the studyrank binary,
// injected via ldflags and reported in the startup log.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
