package testsupport

import (
	"time"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Groups are the API groups used by fixtures.
var Groups = common.APIGroups{
	FlowTest: schema.GroupVersion{Group: config.DefaultFlowTestGroup, Version: config.DefaultFlowTestVersion},
	Flow:     schema.GroupVersion{Group: config.DefaultFlowGroup, Version: config.DefaultFlowVersion},
}

// DependenciesOption customises construction of common.Dependencies.
type DependenciesOption func(*common.Dependencies)

// WithDepsLogger sets the logger used by resource gateways.
func WithDepsLogger(logger common.Logger) DependenciesOption {
	return func(d *common.Dependencies) {
		d.Logger = logger
	}
}

// WithDepsNotifier sets the notifier used by resource gateways.
func WithDepsNotifier(notifier common.Notifier) DependenciesOption {
	return func(d *common.Dependencies) {
		d.Notifier = notifier
	}
}

// WithDepsTelemetry sets the call recorder.
func WithDepsTelemetry(recorder common.Recorder) DependenciesOption {
	return func(d *common.Dependencies) {
		d.Telemetry = recorder
	}
}

// WithDepsKubeClient injects the Kubernetes client.
func WithDepsKubeClient(client kubernetes.Interface) DependenciesOption {
	return func(d *common.Dependencies) {
		d.KubernetesClient = client
	}
}

// WithDepsDynamicClient injects the dynamic client.
func WithDepsDynamicClient(client dynamic.Interface) DependenciesOption {
	return func(d *common.Dependencies) {
		d.DynamicClient = client
	}
}

// WithDepsAPIExtensions injects the apiextensions client.
func WithDepsAPIExtensions(client apiextensionsclientset.Interface) DependenciesOption {
	return func(d *common.Dependencies) {
		d.APIExtensionsClient = client
	}
}

// WithDepsEnsureClient overrides the ensure client callback.
func WithDepsEnsureClient(fn common.EnsureClientFunc) DependenciesOption {
	return func(d *common.Dependencies) {
		d.EnsureClient = fn
	}
}

// WithDepsNamespace overrides the FlowTest namespace.
func WithDepsNamespace(namespace string) DependenciesOption {
	return func(d *common.Dependencies) {
		d.Namespace = namespace
	}
}

// NewResourceDependencies returns a Dependencies bundle suitable for resource gateways.
func NewResourceDependencies(opts ...DependenciesOption) common.Dependencies {
	deps := common.Dependencies{
		Logger:         NoopLogger{},
		EnsureClient:   func(string) error { return nil },
		Groups:         Groups,
		Namespace:      config.DefaultNamespace,
		RequestTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return deps
}
