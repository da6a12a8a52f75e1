package namespaces

import (
	"context"
	"sort"

	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const gatewayName = "NamespaceGateway"

type Service struct {
	deps common.Dependencies
}

func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps}
}

// Names lists namespace names for autocomplete. Failures are notified and yield an empty list.
func (s *Service) Names(ctx context.Context) []string {
	call := common.Call{Gateway: gatewayName, Verb: "list", Failure: "Failed to fetch namespaces"}
	if err := common.Ensure(s.deps, "namespace"); err != nil {
		common.Report(ctx, s.deps, call, err)
		return []string{}
	}

	list, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*corev1.NamespaceList, error) {
		return s.deps.KubernetesClient.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	sort.Strings(names)
	return names
}
