package mage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
)

// Ldflags stamps version metadata into the binary.
func Ldflags(cfg BuildConfig) string {
	vars := map[string]string{
		"Version":   cfg.Version,
		"BuildTime": cfg.BuildTime,
		"GitCommit": cfg.Commit,
	}
	flags := []string{"-s", "-w"}
	for _, name := range []string{"Version", "BuildTime", "GitCommit"} {
		if vars[name] == "" {
			continue
		}
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", cfg.VersionPath, name, vars[name]))
	}
	return strings.Join(flags, " ")
}

// BinaryPath is where Build writes the binary for the target platform.
func BinaryPath(cfg BuildConfig) string {
	name := cfg.AppShortName
	if cfg.OsType == "windows" {
		name += ".exe"
	}
	return filepath.Join(cfg.BuildDir, cfg.OsType+"-"+cfg.ArchType, name)
}

// BuildBinary compiles the console for cfg.OsType/cfg.ArchType.
func BuildBinary(cfg BuildConfig) error {
	out := BinaryPath(cfg)
	fmt.Printf("\n🔨 Building %s %s for %s/%s...\n", cfg.AppShortName, cfg.Version, cfg.OsType, cfg.ArchType)
	env := map[string]string{
		"GOOS":        cfg.OsType,
		"GOARCH":      cfg.ArchType,
		"CGO_ENABLED": "0",
	}
	return sh.RunWithV(env, "go", "build", "-trimpath", "-ldflags", Ldflags(cfg), "-o", out, cfg.MainPackage)
}
