package common

import (
	"time"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// EnsureClientFunc initialises Kubernetes clients when required.
type EnsureClientFunc func(resourceKind string) error

// APIGroups names the custom resource API groups the console talks to.
type APIGroups struct {
	FlowTest schema.GroupVersion
	Flow     schema.GroupVersion
}

// FlowTests is the GVR of the FlowTest collection.
func (g APIGroups) FlowTests() schema.GroupVersionResource {
	return g.FlowTest.WithResource("flowtests")
}

// Dependencies provides the common set of collaborators required by resource gateways.
type Dependencies struct {
	Logger              Logger
	Notifier            Notifier
	Telemetry           Recorder
	KubernetesClient    kubernetes.Interface
	DynamicClient       dynamic.Interface
	APIExtensionsClient apiextensionsclientset.Interface
	EnsureClient        EnsureClientFunc
	Groups              APIGroups

	// Namespace holds the FlowTests listed, created and deleted by the console.
	Namespace string

	// RequestTimeout bounds each API call; zero leaves the caller's deadline alone.
	RequestTimeout time.Duration
}

// WithClients returns a shallow copy using the supplied clients.
func (d Dependencies) WithClients(kube kubernetes.Interface, dyn dynamic.Interface, ext apiextensionsclientset.Interface) Dependencies {
	d.KubernetesClient = kube
	d.DynamicClient = dyn
	d.APIExtensionsClient = ext
	return d
}
