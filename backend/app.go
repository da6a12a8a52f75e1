package backend

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/singleflight"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/luxury-yacht/flowtest-console/backend/capabilities"
	"github.com/luxury-yacht/flowtest-console/backend/console"
	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/notify"
	"github.com/luxury-yacht/flowtest-console/backend/resources/apiextensions"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	"github.com/luxury-yacht/flowtest-console/backend/resources/flows"
	"github.com/luxury-yacht/flowtest-console/backend/resources/flowtests"
	"github.com/luxury-yacht/flowtest-console/backend/resources/namespaces"
	"github.com/luxury-yacht/flowtest-console/backend/resources/pods"
	"github.com/luxury-yacht/flowtest-console/backend/telemetry"
	"github.com/luxury-yacht/flowtest-console/backend/toast"
)

var defaultListener = func(address string) (net.Listener, error) {
	return net.Listen("tcp", address)
}

// Options carries process-level settings that are not part of the console configuration.
type Options struct {
	Version   string
	Verbosity int
	// LogOutput receives klog output; defaults to stderr.
	LogOutput io.Writer
}

// App owns the console's clients, notification surface and HTTP server.
type App struct {
	Ctx       context.Context
	settings  config.Settings
	options   Options
	logger    *Logger
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	notifier  *notify.Service
	hub       *toast.Hub
	validator *flowtests.Validator

	// clientsMu guards clients; a kubeconfig reload swaps the whole set.
	clientsMu sync.RWMutex
	clients   *clusterClients

	// clientInit collapses concurrent rebuild attempts from request handlers.
	clientInit         singleflight.Group
	initMu             sync.Mutex
	lastInitFailure    time.Time
	clientRetryBackoff time.Duration

	watcher *kubeconfigWatcher

	server     *http.Server
	listener   net.Listener
	serverDone chan struct{}

	listen                func(address string) (net.Listener, error)
	kubeClientInitializer func() error
}

// NewApp constructs an App for settings. Clients are built during Startup.
func NewApp(settings config.Settings, opts Options) *App {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)
	logger := NewLogger(config.LoggerMaxEntries)

	app := &App{
		settings:  settings,
		options:   opts,
		logger:    logger,
		registry:  registry,
		metrics:   metrics,
		notifier:  notify.NewService(logger, metrics),
		validator: flowtests.MustValidator(),
		listen:    defaultListener,

		clientRetryBackoff: config.ClientRetryBackoff,
	}
	app.hub = toast.NewHub(toast.Config{
		Logger:   logger,
		Observer: metrics,
	})
	app.kubeClientInitializer = func() error {
		return app.initKubernetesClient()
	}
	return app
}

func (a *App) initKubeClient() error {
	if a.kubeClientInitializer != nil {
		return a.kubeClientInitializer()
	}
	return a.initKubernetesClient()
}

// Groups returns the configured custom resource API groups.
func (a *App) Groups() common.APIGroups {
	return common.APIGroups{
		FlowTest: schema.GroupVersion{Group: a.settings.FlowTestGroup, Version: a.settings.FlowTestVersion},
		Flow:     schema.GroupVersion{Group: a.settings.FlowGroup, Version: a.settings.FlowVersion},
	}
}

func (a *App) currentClients() *clusterClients {
	a.clientsMu.RLock()
	defer a.clientsMu.RUnlock()
	return a.clients
}

func (a *App) setClients(clients *clusterClients) {
	a.clientsMu.Lock()
	a.clients = clients
	a.clientsMu.Unlock()
}

// dependencies bundles the collaborators gateways share for one client set.
func (a *App) dependencies(clients *clusterClients) common.Dependencies {
	deps := common.Dependencies{
		Logger:         a.logger,
		Notifier:       a.notifier,
		Telemetry:      a.metrics,
		Groups:         a.Groups(),
		Namespace:      a.settings.Namespace,
		RequestTimeout: config.RequestTimeout,
		EnsureClient: func(string) error {
			if clients == nil {
				return errClientsUnavailable
			}
			return nil
		},
	}
	if clients != nil {
		deps = deps.WithClients(clients.client, clients.dynamicClient, clients.apiextensionsClient)
	}
	return deps
}

// ensureClients returns the current clients, building them when none exist.
// Concurrent callers share one attempt, and after a failure no new attempt
// starts until clientRetryBackoff has passed.
func (a *App) ensureClients() *clusterClients {
	if clients := a.currentClients(); clients != nil {
		return clients
	}

	a.initMu.Lock()
	failedAt := a.lastInitFailure
	a.initMu.Unlock()
	if !failedAt.IsZero() && time.Since(failedAt) < a.clientRetryBackoff {
		return nil
	}

	_, err, _ := a.clientInit.Do("clients", func() (any, error) {
		if clients := a.currentClients(); clients != nil {
			return nil, nil
		}
		err := a.initKubeClient()
		a.initMu.Lock()
		if err != nil {
			a.lastInitFailure = time.Now()
		} else {
			a.lastInitFailure = time.Time{}
		}
		a.initMu.Unlock()
		return nil, err
	})
	if err != nil {
		a.logger.Debug("Kubernetes clients still unavailable: "+err.Error(), "KubernetesClient")
		return nil
	}
	return a.currentClients()
}

// Gateways returns gateways bound to the current clients. When no clients exist
// yet it tries to build them; on failure the set is empty and the console
// answers 503.
func (a *App) Gateways() console.Gateways {
	clients := a.ensureClients()
	if clients == nil {
		return console.Gateways{}
	}
	deps := a.dependencies(clients)
	return console.Gateways{
		FlowTests:  flowtests.NewService(deps),
		Flows:      flows.NewService(deps),
		Pods:       pods.NewService(deps),
		Namespaces: namespaces.NewService(deps),
		CRDs:       apiextensions.NewService(deps),
		Access:     capabilities.NewService(deps),
	}
}

// Handler builds the console HTTP handler.
func (a *App) Handler() (http.Handler, error) {
	server, err := console.NewServer(console.Config{
		Gateways:     a.Gateways,
		Notifier:     a.notifier,
		Validator:    a.validator,
		Logger:       a.logger,
		Version:      a.options.Version,
		LogTailLines: a.settings.LogTailLines,
		Inbox:        a.hub,
		Toasts:       a.hub,
		Sessions:     a.hub.Middleware,
		Metrics:      a.metrics.Handler(),
		Observer:     a.metrics,
		Logs:         func() any { return a.logger.GetEntries() },
	})
	if err != nil {
		return nil, err
	}
	return server.Handler(), nil
}

// Logger exposes the application log.
func (a *App) Logger() *Logger {
	return a.logger
}
