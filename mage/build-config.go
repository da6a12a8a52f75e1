package mage

import (
	"runtime"
	"time"
)

type BuildConfig struct {
	AppShortName string // Short name of the binary
	ArchType     string // Architecture type (e.g., amd64, arm64)
	BuildDir     string // Directory to place build outputs
	BuildTime    string // Build time in RFC3339 format
	Commit       string // Git commit hash
	MainPackage  string // Package containing func main
	OsType       string // Operating system type (e.g., linux, windows)
	VersionPath  string // Import path holding the ldflags version variables
	Version      string // Version of the build
}

func NewBuildConfig() BuildConfig {
	return BuildConfig{
		AppShortName: "flowtest-console",
		ArchType:     runtime.GOARCH,
		BuildDir:     "build",
		BuildTime:    time.Now().UTC().Format(time.RFC3339),
		Commit:       gitRevParse(),
		MainPackage:  ".",
		OsType:       runtime.GOOS,
		VersionPath:  "github.com/luxury-yacht/flowtest-console/backend",
		Version:      gitDescribe(),
	}
}
