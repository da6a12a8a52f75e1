package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/luxury-yacht/flowtest-console/backend"
	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func parseServe(t *testing.T, args ...string) (*cobra.Command, *serveFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	flags := &serveFlags{}
	bindServeFlags(cmd.Flags(), flags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestResolveSettingsDefaults(t *testing.T) {
	cmd, flags := parseServe(t)

	settings, err := resolveSettings(cmd, flags, envLookup(nil))
	require.NoError(t, err)
	require.Equal(t, config.Defaults(), settings)
}

func TestResolveSettingsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: from-file\nlistenAddress: \":9000\"\nflowGroup: example.io\n"), 0o644))

	cmd, flags := parseServe(t, "--config", path, "--namespace", "from-flag")
	settings, err := resolveSettings(cmd, flags, envLookup(map[string]string{
		config.EnvNamespace: "from-env",
		config.EnvListen:    ":9100",
	}))
	require.NoError(t, err)

	require.Equal(t, "from-flag", settings.Namespace)
	require.Equal(t, ":9100", settings.ListenAddress)
	require.Equal(t, "example.io", settings.FlowGroup)
	require.Equal(t, config.DefaultFlowTestGroup, settings.FlowTestGroup)
}

func TestResolveSettingsUnchangedFlagsDoNotOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: logging\n"), 0o644))

	cmd, flags := parseServe(t, "--config", path)
	settings, err := resolveSettings(cmd, flags, envLookup(nil))
	require.NoError(t, err)
	require.Equal(t, "logging", settings.Namespace)
}

func TestResolveSettingsRejectsInvalidBaseURL(t *testing.T) {
	cmd, flags := parseServe(t, "--base-url", "ftp://proxy")

	_, err := resolveSettings(cmd, flags, envLookup(nil))
	require.ErrorContains(t, err, "scheme must be http or https")
}

func TestResolveSettingsMissingConfigFile(t *testing.T) {
	cmd, flags := parseServe(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := resolveSettings(cmd, flags, envLookup(nil))
	require.ErrorContains(t, err, "read settings file")
}

func TestServeCommandRunsWithResolvedSettings(t *testing.T) {
	orig := runServe
	t.Cleanup(func() { runServe = orig })

	var got config.Settings
	var opts backend.Options
	runServe = func(_ context.Context, settings config.Settings, o backend.Options) error {
		got, opts = settings, o
		return nil
	}

	root := NewRootCmd()
	root.SetArgs([]string{"serve", "--namespace", "logging", "--v", "4", "--log-tail-lines", "25"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	require.Equal(t, "logging", got.Namespace)
	require.Equal(t, 25, got.LogTailLines)
	require.Equal(t, 4, opts.Verbosity)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs([]string{"version"})
	root.SetOut(&out)
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "flowtest-console version ")
}
