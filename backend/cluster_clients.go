package backend

import (
	"errors"
	"fmt"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var errClientsUnavailable = errors.New("kubernetes clients are not initialised")

// clusterClients stores the Kubernetes clients built from one rest.Config.
type clusterClients struct {
	source              string
	client              kubernetes.Interface
	apiextensionsClient apiextensionsclientset.Interface
	dynamicClient       dynamic.Interface
	restConfig          *rest.Config
}

// buildClusterClients initializes client-go dependencies for config.
func buildClusterClients(config *rest.Config, source string) (*clusterClients, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	apiextensionsClient, err := apiextensionsclientset.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &clusterClients{
		source:              source,
		client:              clientset,
		apiextensionsClient: apiextensionsClient,
		dynamicClient:       dynamicClient,
		restConfig:          config,
	}, nil
}

// buildRestConfigForKubeconfig loads a REST config for the provided kubeconfig path/context.
// An empty path follows the default loading rules (KUBECONFIG, then ~/.kube/config).
func buildRestConfigForKubeconfig(path, context string) (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.ExplicitPath = path
	overrides := &clientcmd.ConfigOverrides{}
	if context != "" {
		overrides.CurrentContext = context
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
	config, err := clientConfig.ClientConfig()
	if err != nil {
		source := path
		if source == "" {
			source = "default kubeconfig"
		}
		return nil, fmt.Errorf("failed to build config from %s: %w", source, err)
	}
	return config, nil
}

// buildRestConfigForBaseURL targets an API proxy that already handles authentication.
func buildRestConfigForBaseURL(baseURL string) *rest.Config {
	return &rest.Config{Host: baseURL}
}
