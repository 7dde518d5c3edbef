// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Info is the build metadata as printed by the version subcommand.
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}
}

func (i Info) String() string {
	return fmt.Sprintf("smudgepin %s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildTime)
}
