package flows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	k8stesting "k8s.io/client-go/testing"

	"github.com/luxury-yacht/flowtest-console/backend/resources/flows"
	"github.com/luxury-yacht/flowtest-console/backend/testsupport"
)

func TestResourceForKind(t *testing.T) {
	resource, err := flows.ResourceForKind("Flow")
	require.NoError(t, err)
	require.Equal(t, "flows", resource)

	resource, err = flows.ResourceForKind("ClusterFlow")
	require.NoError(t, err)
	require.Equal(t, "clusterflows", resource)

	_, err = flows.ResourceForKind("flow")
	require.Error(t, err)
}

func TestGetClusterFlowUsesClusterflowsCollection(t *testing.T) {
	match := []any{map[string]any{"select": map[string]any{"labels": map[string]any{"app": "nginx"}}}}
	filters := []any{map[string]any{"grep": map[string]any{"regexp": []any{map[string]any{"key": "msg"}}}}}
	client := testsupport.NewDynamicClient(t, testsupport.FlowFixture("ClusterFlow", "logging", "all", match, filters))

	var requested []string
	client.PrependReactor("get", "*", func(action k8stesting.Action) (bool, runtime.Object, error) {
		requested = append(requested, action.GetResource().Resource)
		return false, nil, nil
	})

	service := flows.NewService(testsupport.NewResourceDependencies(testsupport.WithDepsDynamicClient(client)))
	flow := service.Get(context.Background(), "logging", "ClusterFlow", "all")

	require.Equal(t, []string{"clusterflows"}, requested)
	require.NotNil(t, flow)
	require.Equal(t, "ClusterFlow", flow.Kind)
	require.Equal(t, match, flow.Match)
	require.Equal(t, filters, flow.Filters)
}

func TestGetUnknownKindWarnsWithoutRequest(t *testing.T) {
	client := testsupport.NewDynamicClient(t)
	notifier := &testsupport.RecordingNotifier{}
	service := flows.NewService(testsupport.NewResourceDependencies(
		testsupport.WithDepsDynamicClient(client),
		testsupport.WithDepsNotifier(notifier),
	))

	require.Nil(t, service.Get(context.Background(), "logging", "Output", "x"))
	require.Empty(t, client.Actions())
	require.Equal(t, []testsupport.Notification{{Variant: "warning", Message: "Invalid flow type"}}, notifier.Calls())
}

func TestGetMissingFlowNotifies(t *testing.T) {
	client := testsupport.NewDynamicClient(t)
	client.PrependReactor("get", "flows", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewNotFound(schema.GroupResource{Group: "logging.banzaicloud.io", Resource: "flows"}, "gone")
	})
	notifier := &testsupport.RecordingNotifier{}
	service := flows.NewService(testsupport.NewResourceDependencies(
		testsupport.WithDepsDynamicClient(client),
		testsupport.WithDepsNotifier(notifier),
	))

	require.Nil(t, service.Get(context.Background(), "logging", "Flow", "gone"))
	require.Equal(t, []string{"Failed to fetch Flow logging.gone"}, notifier.Messages("warning"))
	require.Len(t, notifier.Messages("error"), 1)
}

func TestGetFlowWithoutRulesReturnsEmptyLists(t *testing.T) {
	client := testsupport.NewDynamicClient(t, testsupport.FlowFixture("Flow", "logging", "bare", nil, nil))
	service := flows.NewService(testsupport.NewResourceDependencies(testsupport.WithDepsDynamicClient(client)))

	flow := service.Get(context.Background(), "logging", "Flow", "bare")
	require.NotNil(t, flow)
	require.Empty(t, flow.Match)
	require.Empty(t, flow.Filters)
}

func TestNamesListsFlowsByKind(t *testing.T) {
	client := testsupport.NewDynamicClient(t,
		testsupport.FlowFixture("Flow", "logging", "b-flow", nil, nil),
		testsupport.FlowFixture("Flow", "logging", "a-flow", nil, nil),
		testsupport.FlowFixture("ClusterFlow", "logging", "cluster", nil, nil),
	)
	service := flows.NewService(testsupport.NewResourceDependencies(testsupport.WithDepsDynamicClient(client)))

	require.Equal(t, []string{"a-flow", "b-flow"}, service.Names(context.Background(), "logging", "Flow"))
	require.Equal(t, []string{"cluster"}, service.Names(context.Background(), "logging", "ClusterFlow"))
}

func TestNamesInvalidKindAndFailure(t *testing.T) {
	client := testsupport.NewDynamicClient(t)
	client.PrependReactor("list", "flows", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("unreachable")
	})
	notifier := &testsupport.RecordingNotifier{}
	service := flows.NewService(testsupport.NewResourceDependencies(
		testsupport.WithDepsDynamicClient(client),
		testsupport.WithDepsNotifier(notifier),
	))

	require.Empty(t, service.Names(context.Background(), "logging", ""))
	require.Empty(t, service.Names(context.Background(), "logging", "Flow"))
	require.Equal(t, []string{"Invalid flow type", "Failed to fetch flows"}, notifier.Messages("warning"))
	require.Equal(t, []string{"[HTTP error]: unreachable"}, notifier.Messages("error"))
}
