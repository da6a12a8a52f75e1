package flows

import (
	"context"
	"fmt"
	"sort"

	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const gatewayName = "FlowGateway"

// Flow kinds a FlowTest may reference.
const (
	KindFlow        = "Flow"
	KindClusterFlow = "ClusterFlow"
)

// Kinds lists the accepted flow kinds in display order.
var Kinds = []string{KindFlow, KindClusterFlow}

// InvalidKindMessage is the warning shown for an unknown flow kind.
const InvalidKindMessage = "Invalid flow type"

// ResourceForKind maps a flow kind to its collection name.
func ResourceForKind(kind string) (string, error) {
	switch kind {
	case KindFlow:
		return "flows", nil
	case KindClusterFlow:
		return "clusterflows", nil
	}
	return "", fmt.Errorf("invalid flow kind %q", kind)
}

type Service struct {
	deps common.Dependencies
}

func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps}
}

// Get fetches one Flow or ClusterFlow. It returns nil after notifying on failure or an unknown kind.
func (s *Service) Get(ctx context.Context, namespace, kind, name string) *restypes.Flow {
	resource, err := ResourceForKind(kind)
	if err != nil {
		s.invalidKind(ctx, kind)
		return nil
	}

	call := common.Call{
		Gateway: gatewayName,
		Verb:    "get",
		Failure: fmt.Sprintf("Failed to fetch %s %s.%s", kind, namespace, name),
	}
	if err := common.Ensure(s.deps, kind); err != nil {
		common.Report(ctx, s.deps, call, err)
		return nil
	}

	gvr := s.deps.Groups.Flow.WithResource(resource)
	obj, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*unstructured.Unstructured, error) {
		return s.deps.DynamicClient.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	})
	if err != nil {
		return nil
	}
	return FromUnstructured(kind, obj)
}

// Names lists Flow or ClusterFlow names in namespace for autocomplete.
func (s *Service) Names(ctx context.Context, namespace, kind string) []string {
	resource, err := ResourceForKind(kind)
	if err != nil {
		s.invalidKind(ctx, kind)
		return []string{}
	}

	call := common.Call{Gateway: gatewayName, Verb: "list", Failure: "Failed to fetch flows"}
	if err := common.Ensure(s.deps, kind); err != nil {
		common.Report(ctx, s.deps, call, err)
		return []string{}
	}

	gvr := s.deps.Groups.Flow.WithResource(resource)
	list, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*unstructured.UnstructuredList, error) {
		return s.deps.DynamicClient.Resource(gvr).Namespace(namespace).List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}
	sort.Strings(names)
	return names
}

func (s *Service) invalidKind(ctx context.Context, kind string) {
	if s.deps.Logger != nil {
		s.deps.Logger.Warn(fmt.Sprintf("rejected flow kind %q", kind), gatewayName)
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Warning(ctx, InvalidKindMessage)
	}
}

// FromUnstructured extracts the rule lists of a Flow or ClusterFlow.
// Missing or malformed rule lists come back empty.
func FromUnstructured(kind string, obj *unstructured.Unstructured) *restypes.Flow {
	if obj == nil {
		return nil
	}
	flow := &restypes.Flow{
		Kind:      kind,
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Match:     []any{},
		Filters:   []any{},
	}
	if match, found, err := unstructured.NestedSlice(obj.Object, "spec", "match"); err == nil && found {
		flow.Match = match
	}
	if filters, found, err := unstructured.NestedSlice(obj.Object, "spec", "filters"); err == nil && found {
		flow.Filters = filters
	}
	return flow
}
