package backend

import (
	"fmt"
	"path/filepath"

	"k8s.io/client-go/rest"
)

// Client throughput limits for the console's API traffic.
const (
	clientQPS   = 50
	clientBurst = 100
)

// restConfig resolves where the console talks to Kubernetes: the configured
// base URL, else an explicit or default kubeconfig, else in-cluster credentials.
func (a *App) restConfig() (*rest.Config, string, error) {
	if a.settings.BaseURL != "" {
		return buildRestConfigForBaseURL(a.settings.BaseURL), a.settings.BaseURL, nil
	}

	config, err := buildRestConfigForKubeconfig(a.settings.Kubeconfig, a.settings.Context)
	if err == nil {
		source := "kubeconfig"
		if a.settings.Kubeconfig != "" {
			source = filepath.Base(a.settings.Kubeconfig)
		}
		return config, source, nil
	}

	inCluster, inClusterErr := rest.InClusterConfig()
	if inClusterErr == nil {
		return inCluster, "in-cluster", nil
	}
	return nil, "", fmt.Errorf("%w (in-cluster fallback: %v)", err, inClusterErr)
}

func (a *App) initKubernetesClient() error {
	a.logger.Info("Initializing Kubernetes client", "KubernetesClient")

	config, source, err := a.restConfig()
	if err != nil {
		a.logger.Error(fmt.Sprintf("Failed to resolve cluster connection: %v", err), "KubernetesClient")
		return err
	}
	config.QPS = clientQPS
	config.Burst = clientBurst

	clients, err := buildClusterClients(config, source)
	if err != nil {
		a.logger.Error(fmt.Sprintf("Failed to build Kubernetes clients: %v", err), "KubernetesClient")
		return err
	}
	a.setClients(clients)

	a.logger.Info(fmt.Sprintf("Kubernetes clients ready (%s, host %s)", source, config.Host), "KubernetesClient")
	return nil
}

// usesKubeconfig reports whether clients come, or may yet come, from
// kubeconfig files worth watching. A base URL or in-cluster credentials
// never read a kubeconfig.
func (a *App) usesKubeconfig() bool {
	if a.settings.BaseURL != "" {
		return false
	}
	clients := a.currentClients()
	return clients == nil || clients.source != "in-cluster"
}
