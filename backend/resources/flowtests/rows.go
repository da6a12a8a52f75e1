package flowtests

import (
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Counts summarises the rule outcomes of one FlowTest.
type Counts struct {
	Total  int
	Passed int
	Failed int
}

// CountOutcomes counts rule outcomes across both status lists.
func CountOutcomes(matchStatus, filterStatus []bool) Counts {
	var c Counts
	for _, list := range [][]bool{matchStatus, filterStatus} {
		for _, passed := range list {
			c.Total++
			if passed {
				c.Passed++
			}
		}
	}
	c.Failed = c.Total - c.Passed
	return c
}

// RowFromUnstructured flattens one listed FlowTest. id is its index in the response.
func RowFromUnstructured(id int, obj *unstructured.Unstructured) restypes.FlowTestRow {
	counts := CountOutcomes(
		statusBools(obj, "matchStatus"),
		statusBools(obj, "filterStatus"),
	)
	status, _, _ := unstructured.NestedString(obj.Object, "status", "status")
	flowKind, _, _ := unstructured.NestedString(obj.Object, "spec", "referenceFlow", "kind")
	flowName, _, _ := unstructured.NestedString(obj.Object, "spec", "referenceFlow", "name")
	podName, _, _ := unstructured.NestedString(obj.Object, "spec", "referencePod", "name")
	created := obj.GetCreationTimestamp().Time

	return restypes.FlowTestRow{
		ID:            id,
		UID:           string(obj.GetUID()),
		Status:        status,
		Name:          obj.GetName(),
		Namespace:     obj.GetNamespace(),
		FlowType:      flowKind,
		ReferencePod:  podName,
		ReferenceFlow: flowName,
		TotalTests:    counts.Total,
		PassedTests:   counts.Passed,
		FailedTests:   counts.Failed,
		CreatedAt:     common.FormatCreated(created),
		Age:           common.FormatAge(created),
		Created:       created,
	}
}

// statusBools reads a status list; entries that are not booleans count as failed.
func statusBools(obj *unstructured.Unstructured, field string) []bool {
	raw, found, err := unstructured.NestedSlice(obj.Object, "status", field)
	if err != nil || !found {
		return nil
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		b, _ := v.(bool)
		out[i] = b
	}
	return out
}
