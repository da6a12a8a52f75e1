package testsupport

import (
	"time"

	corev1 "k8s.io/api/core/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
)

// FlowTestOption mutates a FlowTest fixture.
type FlowTestOption func(*unstructured.Unstructured)

// FlowTestFixture produces a FlowTest referencing pod "app" and Flow "flow" in namespace.
func FlowTestFixture(namespace, name string, opts ...FlowTestOption) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": Groups.FlowTest.String(),
		"kind":       "FlowTest",
		"metadata": map[string]any{
			"name":              name,
			"namespace":         namespace,
			"uid":               string(types.UID("uid-" + name)),
			"creationTimestamp": "2024-01-02T03:04:05Z",
		},
		"spec": map[string]any{
			"referencePod": map[string]any{
				"kind":      "Pod",
				"name":      "app",
				"namespace": namespace,
			},
			"referenceFlow": map[string]any{
				"kind":      "Flow",
				"name":      "flow",
				"namespace": namespace,
			},
			"sentMessages": []any{"line one", "line two"},
		},
		"status": map[string]any{
			"status":       "Created",
			"matchStatus":  []any{},
			"filterStatus": []any{},
		},
	}}
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// FlowTestWithStatus sets the status phase and the per-rule outcomes.
func FlowTestWithStatus(status string, match, filter []bool) FlowTestOption {
	return func(obj *unstructured.Unstructured) {
		_ = unstructured.SetNestedField(obj.Object, status, "status", "status")
		_ = unstructured.SetNestedSlice(obj.Object, boolSlice(match), "status", "matchStatus")
		_ = unstructured.SetNestedSlice(obj.Object, boolSlice(filter), "status", "filterStatus")
	}
}

// FlowTestWithFlow points the FlowTest at a different Flow or ClusterFlow.
func FlowTestWithFlow(kind, namespace, name string) FlowTestOption {
	return func(obj *unstructured.Unstructured) {
		_ = unstructured.SetNestedStringMap(obj.Object, map[string]string{
			"kind":      kind,
			"name":      name,
			"namespace": namespace,
		}, "spec", "referenceFlow")
	}
}

// FlowTestWithoutStatus removes the status block, as on a freshly created object.
func FlowTestWithoutStatus() FlowTestOption {
	return func(obj *unstructured.Unstructured) {
		unstructured.RemoveNestedField(obj.Object, "status")
	}
}

// FlowTestCreatedAt overrides the creation timestamp.
func FlowTestCreatedAt(ts time.Time) FlowTestOption {
	return func(obj *unstructured.Unstructured) {
		obj.SetCreationTimestamp(metav1.NewTime(ts))
	}
}

func boolSlice(values []bool) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// FlowFixture produces a Flow or ClusterFlow with the given rules.
func FlowFixture(kind, namespace, name string, match, filters []any) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": Groups.Flow.String(),
		"kind":       kind,
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]any{},
	}}
	if match != nil {
		_ = unstructured.SetNestedSlice(obj.Object, match, "spec", "match")
	}
	if filters != nil {
		_ = unstructured.SetNestedSlice(obj.Object, filters, "spec", "filters")
	}
	return obj
}

// NamespaceFixture returns a namespace object.
func NamespaceFixture(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

// PodFixture returns a running pod with a single container.
func PodFixture(namespace, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "app", Image: "busybox"}},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}
}

// CRDFixture produces a namespaced v1 CRD for group with the given plural and kind.
func CRDFixture(group, plural, kind string) *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: plural + "." + group},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: group,
			Scope: apiextensionsv1.NamespaceScoped,
			Names: apiextensionsv1.CustomResourceDefinitionNames{Plural: plural, Kind: kind},
		},
	}
}
