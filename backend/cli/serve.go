package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/luxury-yacht/flowtest-console/backend"
	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
)

type serveFlags struct {
	configFile      string
	listen          string
	baseURL         string
	kubeconfig      string
	kubeContext     string
	namespace       string
	flowTestGroup   string
	flowTestVersion string
	flowGroup       string
	flowVersion     string
	logTailLines    int
	verbosity       int
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the FlowTest console",
		Long: `Serve the FlowTest console over HTTP.

Settings are resolved from built-in defaults, then the optional --config file,
then FLOWTEST_CONSOLE_* environment variables, then explicit flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := resolveSettings(cmd, flags, os.LookupEnv)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, settings, backend.Options{
				Version:   backend.GetAppInfo().Version,
				Verbosity: flags.verbosity,
				LogOutput: cmd.ErrOrStderr(),
			})
		},
	}

	bindServeFlags(cmd.Flags(), flags)
	return cmd
}

func bindServeFlags(f *pflag.FlagSet, flags *serveFlags) {
	defaults := config.Defaults()
	f.StringVar(&flags.configFile, "config", "", "Path to a YAML settings file")
	f.StringVar(&flags.listen, "listen", defaults.ListenAddress, "Address the console listens on")
	f.StringVar(&flags.baseURL, "base-url", "", "Kubernetes API proxy URL; disables kubeconfig loading")
	f.StringVar(&flags.kubeconfig, "kubeconfig", "", "Path to the kubeconfig file")
	f.StringVar(&flags.kubeContext, "context", "", "Kubeconfig context to use")
	f.StringVarP(&flags.namespace, "namespace", "n", defaults.Namespace, "Namespace holding FlowTests")
	f.StringVar(&flags.flowTestGroup, "flowtest-group", defaults.FlowTestGroup, "API group of the FlowTest resource")
	f.StringVar(&flags.flowTestVersion, "flowtest-version", defaults.FlowTestVersion, "API version of the FlowTest resource")
	f.StringVar(&flags.flowGroup, "flow-group", defaults.FlowGroup, "API group of Flow and ClusterFlow resources")
	f.StringVar(&flags.flowVersion, "flow-version", defaults.FlowVersion, "API version of Flow and ClusterFlow resources")
	f.IntVar(&flags.logTailLines, "log-tail-lines", defaults.LogTailLines, "Default number of pod log lines offered on the create page")
	f.IntVar(&flags.verbosity, "v", 0, "Kubernetes client log verbosity")
}

// resolveSettings layers defaults, the settings file, the environment and the
// flags the user set explicitly.
func resolveSettings(cmd *cobra.Command, flags *serveFlags, lookup func(string) (string, bool)) (config.Settings, error) {
	settings := config.Defaults()
	if err := settings.LoadFile(flags.configFile); err != nil {
		return config.Settings{}, err
	}
	settings.ApplyEnv(lookup)

	changed := cmd.Flags().Changed
	overrides := []struct {
		name  string
		apply func()
	}{
		{"listen", func() { settings.ListenAddress = flags.listen }},
		{"base-url", func() { settings.BaseURL = flags.baseURL }},
		{"kubeconfig", func() { settings.Kubeconfig = flags.kubeconfig }},
		{"context", func() { settings.Context = flags.kubeContext }},
		{"namespace", func() { settings.Namespace = flags.namespace }},
		{"flowtest-group", func() { settings.FlowTestGroup = flags.flowTestGroup }},
		{"flowtest-version", func() { settings.FlowTestVersion = flags.flowTestVersion }},
		{"flow-group", func() { settings.FlowGroup = flags.flowGroup }},
		{"flow-version", func() { settings.FlowVersion = flags.flowVersion }},
		{"log-tail-lines", func() { settings.LogTailLines = flags.logTailLines }},
	}
	for _, o := range overrides {
		if changed(o.name) {
			o.apply()
		}
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

var runServe = func(ctx context.Context, settings config.Settings, opts backend.Options) error {
	app := backend.NewApp(settings, opts)
	if err := app.Startup(ctx); err != nil {
		return err
	}
	return app.Serve(ctx)
}
