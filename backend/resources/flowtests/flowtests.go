package flowtests

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/internal/parallel"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const gatewayName = "FlowTestGateway"

// Labels applied to every FlowTest created by the console.
const (
	LabelManagedBy = "app.kubernetes.io/managed-by"
	LabelCreatedBy = "app.kubernetes.io/created-by"

	ManagedByValue = "logging-pipeline-plumber"
	CreatedByValue = "logging-plumber"
)

// Notification texts for create and delete outcomes.
const (
	CreatedMessage      = "FlowTest Created"
	CreateFailedMessage = "Failed to create flowtest"
	ListFailedMessage   = "Failed to fetch flowtest list"
)

type Service struct {
	deps common.Dependencies
}

func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps}
}

// Namespace is where the service lists, creates and deletes FlowTests.
func (s *Service) Namespace() string {
	return s.deps.Namespace
}

func (s *Service) resource() (string, error) {
	if err := common.Ensure(s.deps, "FlowTest"); err != nil {
		return "", err
	}
	return s.deps.Namespace, nil
}

// List returns one row per FlowTest, in response order. Failures yield an empty list.
func (s *Service) List(ctx context.Context) []restypes.FlowTestRow {
	call := common.Call{Gateway: gatewayName, Verb: "list", Failure: ListFailedMessage}
	namespace, err := s.resource()
	if err != nil {
		common.Report(ctx, s.deps, call, err)
		return []restypes.FlowTestRow{}
	}

	list, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*unstructured.UnstructuredList, error) {
		return s.deps.DynamicClient.Resource(s.deps.Groups.FlowTests()).Namespace(namespace).List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return []restypes.FlowTestRow{}
	}

	rows := make([]restypes.FlowTestRow, 0, len(list.Items))
	for i := range list.Items {
		rows = append(rows, RowFromUnstructured(i, &list.Items[i]))
	}
	return rows
}

// Get fetches one FlowTest, or nil after notifying on failure.
func (s *Service) Get(ctx context.Context, namespace, name string) *restypes.FlowTest {
	call := common.Call{
		Gateway: gatewayName,
		Verb:    "get",
		Failure: fmt.Sprintf("Failed to fetch flowtest %s.%s", namespace, name),
	}
	if _, err := s.resource(); err != nil {
		common.Report(ctx, s.deps, call, err)
		return nil
	}

	flowTest, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*restypes.FlowTest, error) {
		obj, err := s.deps.DynamicClient.Resource(s.deps.Groups.FlowTests()).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, err
		}
		return FromUnstructured(obj)
	})
	if err != nil {
		return nil
	}
	return flowTest
}

// FromUnstructured converts a fetched FlowTest, dropping bookkeeping metadata.
func FromUnstructured(obj *unstructured.Unstructured) (*restypes.FlowTest, error) {
	cleaned := obj.DeepCopy()
	cleaned.SetGeneration(0)
	cleaned.SetManagedFields(nil)

	var flowTest restypes.FlowTest
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(cleaned.Object, &flowTest); err != nil {
		return nil, fmt.Errorf("decode flowtest %s: %w", obj.GetName(), err)
	}
	return &flowTest, nil
}

// Skeleton is the document every new FlowTest starts from.
func (s *Service) Skeleton() map[string]any {
	return map[string]any{
		"apiVersion": s.deps.Groups.FlowTest.String(),
		"kind":       "FlowTest",
		"metadata": map[string]any{
			"namespace": s.deps.Namespace,
			"labels": map[string]any{
				LabelManagedBy: ManagedByValue,
				LabelCreatedBy: CreatedByValue,
			},
		},
		"spec": map[string]any{
			"referencePod":  map[string]any{"kind": "Pod"},
			"referenceFlow": map[string]any{},
			"sentMessages":  []any{},
		},
	}
}

// Build merges doc into the skeleton. The pod kind is always Pod and the
// FlowTest label carries the name.
func (s *Service) Build(doc map[string]any) (*unstructured.Unstructured, error) {
	base, err := json.Marshal(s.Skeleton())
	if err != nil {
		return nil, err
	}
	patch, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode flowtest form: %w", err)
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, fmt.Errorf("merge flowtest form: %w", err)
	}

	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(merged); err != nil {
		return nil, fmt.Errorf("decode merged flowtest: %w", err)
	}
	obj.SetNamespace(s.deps.Namespace)
	if err := unstructured.SetNestedField(obj.Object, "Pod", "spec", "referencePod", "kind"); err != nil {
		return nil, err
	}
	labels := obj.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	labels[s.deps.Groups.FlowTest.Group+"/flowtest"] = obj.GetName()
	obj.SetLabels(labels)
	return obj, nil
}

// Create submits a FlowTest built from doc. It is never retried.
func (s *Service) Create(ctx context.Context, doc map[string]any) bool {
	call := common.Call{Gateway: gatewayName, Verb: "create", Failure: CreateFailedMessage}
	namespace, err := s.resource()
	if err != nil {
		common.Report(ctx, s.deps, call, err)
		return false
	}

	obj, err := s.Build(doc)
	if err != nil {
		common.Report(ctx, s.deps, call, err)
		return false
	}

	_, err = common.Do(ctx, s.deps, call, func(ctx context.Context) (*unstructured.Unstructured, error) {
		return s.deps.DynamicClient.Resource(s.deps.Groups.FlowTests()).Namespace(namespace).Create(ctx, obj, metav1.CreateOptions{})
	})
	if err != nil {
		return false
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Success(ctx, CreatedMessage)
	}
	return true
}

// Delete removes the named FlowTest and notifies the outcome.
func (s *Service) Delete(ctx context.Context, name string) bool {
	call := common.Call{
		Gateway: gatewayName,
		Verb:    "delete",
		OnError: func(ctx context.Context, msg string) {
			if s.deps.Notifier != nil {
				s.deps.Notifier.Error(ctx, fmt.Sprintf("Failed to delete flow test %s [%s]", name, msg))
			}
		},
	}
	namespace, err := s.resource()
	if err != nil {
		common.Report(ctx, s.deps, call, err)
		return false
	}

	_, err = common.Do(ctx, s.deps, call, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.deps.DynamicClient.Resource(s.deps.Groups.FlowTests()).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	})
	if err != nil {
		return false
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Success(ctx, fmt.Sprintf("Flow %s deleted successfully", name))
	}
	return true
}

// DeleteResult is the outcome of one delete in a batch.
type DeleteResult struct {
	Name    string
	Deleted bool
}

// DeleteMany issues one independent delete per name. A failure never stops or
// rolls back the others; results keep the input order.
func (s *Service) DeleteMany(ctx context.Context, names []string) []DeleteResult {
	results := make([]DeleteResult, len(names))
	indexes := make([]int, len(names))
	for i := range names {
		indexes[i] = i
	}
	parallel.Settle(ctx, indexes, config.DeleteConcurrency, func(ctx context.Context, i int) error {
		results[i] = DeleteResult{Name: names[i], Deleted: s.Delete(ctx, names[i])}
		return nil
	})
	return results
}
