// Package version reports which pav build is running. It backs
// "pav version" and the header of the interactive watch view.
//
// Release builds set the values with
//
//	go build -ldflags "-X github.com/hupe1980/pav/internal/version.version=v1.2.0 \
//	  -X github.com/hupe1980/pav/internal/version.gitCommit=$(git rev-parse HEAD)" ./cmd/pav
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Set by -ldflags; a plain "go build" reports a dev build.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// Info is the payload of "pav version --json".
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	return Info{
		Version:   version,
		GitCommit: shortCommit(gitCommit),
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String is the line printed by "pav version".
func (i Info) String() string {
	return fmt.Sprintf("pav %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// Short is printed by "pav version --short" and shown in the watch view header.
func (i Info) Short() string {
	return "pav " + i.Version
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

// shortCommit keeps the abbreviated form git prints by default.
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
