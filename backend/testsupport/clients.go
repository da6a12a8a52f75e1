package testsupport

import (
	"testing"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic/fake"
)

// CustomListKinds maps the custom resources served by the fake dynamic client to their list kinds.
func CustomListKinds() map[schema.GroupVersionResource]string {
	return map[schema.GroupVersionResource]string{
		Groups.FlowTests():                       "FlowTestList",
		Groups.Flow.WithResource("flows"):        "FlowList",
		Groups.Flow.WithResource("clusterflows"): "ClusterFlowList",
	}
}

// NewDynamicClient constructs a dynamic fake client that can list FlowTests, Flows and ClusterFlows.
func NewDynamicClient(t testing.TB, objects ...runtime.Object) *fake.FakeDynamicClient {
	t.Helper()
	return fake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), CustomListKinds(), objects...)
}
