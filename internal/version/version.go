package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the current version of the application
	// This can be set at build time with -ldflags "-X github.com/yangtinglin69/saas/internal/version.Version=v1.0.0"
	Version = "dev"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildDate is the build date
	BuildDate = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the current version information
func GetVersion() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String formats the version for command line output
func (i Info) String() string {
	return fmt.Sprintf("saas-server %s (commit %s, built %s, %s)", i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
