// This file handles application versioning.
// Release builds set the variables below via ldflags; other builds fall back
// to the module version recorded by the Go toolchain.

package backend

import (
	"runtime/debug"
)

// Version variables that can be set at build time
var (
	Version   = "dev"
	BuildTime = "dev"
	GitCommit = "dev"
)

// AppInfo contains application version information
type AppInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GitCommit string `json:"gitCommit"`
}

var readBuildInfo = debug.ReadBuildInfo

// GetAppInfo returns the application version information
func GetAppInfo() AppInfo {
	info := AppInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
	if Version != "dev" {
		return info
	}

	build, ok := readBuildInfo()
	if !ok {
		return info
	}
	if v := build.Main.Version; v != "" && v != "(devel)" {
		info.Version = v + " (dev)"
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
		case "vcs.time":
			info.BuildTime = setting.Value
		}
	}
	return info
}
