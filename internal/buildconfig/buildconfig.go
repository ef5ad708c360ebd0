package buildconfig

import "fmt"

// Set via -ldflags "-X github.com/Harshitk-cp/concierge/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo is served by GET /version.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
		"built":   date,
	}
}

// String renders a one-line banner for the CLI.
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", binary, version, commit, date)
}
