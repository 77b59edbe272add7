package version

import "fmt"

// Set at build time with -ldflags "-X"
var (
	Version   = "0.1.0"
	BuildTime = "development"
	GitCommit = "unknown"
)

func String() string {
	return fmt.Sprintf("v%s", Version)
}

// Long includes the commit and build time
func Long() string {
	return fmt.Sprintf("qdither v%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

func Get() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildTime": BuildTime,
		"gitCommit": GitCommit,
	}
}
