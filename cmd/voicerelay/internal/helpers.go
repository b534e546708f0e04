package internal

import (
	"fmt"
	"runtime"
)

const Logo = "🎙️"

// Set with -ldflags "-X github.com/voicerelay/voicerelay/cmd/voicerelay/internal.version=..."
var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
