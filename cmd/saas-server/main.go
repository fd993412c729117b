package main

import (
	"github.com/yangtinglin69/saas/cmd/saas-server/cli"
	"github.com/yangtinglin69/saas/internal/version"
)

var (
	// Version info (set by ldflags during build)
	buildVersion = "dev"
	buildTime    = "unknown"
	gitCommit    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.BuildDate = buildTime
	version.GitCommit = gitCommit

	cli.Execute()
}
