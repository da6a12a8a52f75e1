package types

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ReferenceObject points at another namespaced object.
type ReferenceObject struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// IsZero reports whether the reference names nothing.
func (r ReferenceObject) IsZero() bool {
	return r.Kind == "" && r.Name == "" && r.Namespace == ""
}

// FlowStatus is the lifecycle state the operator reports for a FlowTest.
type FlowStatus string

const (
	FlowStatusCreated FlowStatus = "Created"
	FlowStatusPending FlowStatus = "Pending"
	FlowStatusRunning FlowStatus = "Running"
	FlowStatusSkipped FlowStatus = "Skipped"
	FlowStatusFailed  FlowStatus = "Failed"
	FlowStatusPassed  FlowStatus = "Passed"
)

// FlowTestSpec is the user-supplied part of a FlowTest.
type FlowTestSpec struct {
	ReferencePod  ReferenceObject `json:"referencePod"`
	ReferenceFlow ReferenceObject `json:"referenceFlow"`
	SentMessages  []string        `json:"sentMessages,omitempty"`
}

// FlowTestStatus is written by the operator. MatchStatus and FilterStatus are
// index-aligned to the referenced Flow's match and filters rules.
type FlowTestStatus struct {
	Status         FlowStatus       `json:"status,omitempty"`
	MatchStatus    []bool           `json:"matchStatus,omitempty"`
	FilterStatus   []bool           `json:"filterStatus,omitempty"`
	SimulationPod  *ReferenceObject `json:"simulationPod,omitempty"`
	SimulationFlow *ReferenceObject `json:"simulationFlow,omitempty"`
	OutputIndex    string           `json:"outputIndex,omitempty"`
	LogView        string           `json:"logView,omitempty"`
}

// FlowTest tests a Flow's rules against sample log lines.
type FlowTest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FlowTestSpec   `json:"spec"`
	Status FlowTestStatus `json:"status,omitempty"`
}

// Flow is the read-only view of a Flow or ClusterFlow. Rules are opaque.
type Flow struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Match     []any  `json:"match"`
	Filters   []any  `json:"filters"`
}

// FlowTestRow is the flattened table representation of a FlowTest.
type FlowTestRow struct {
	ID            int       `json:"id"`
	UID           string    `json:"uid"`
	Status        string    `json:"status"`
	Name          string    `json:"name"`
	Namespace     string    `json:"namespace"`
	FlowType      string    `json:"flowType"`
	ReferencePod  string    `json:"referencePod"`
	ReferenceFlow string    `json:"referenceFlow"`
	TotalTests    int       `json:"totalTests"`
	PassedTests   int       `json:"passedTests"`
	FailedTests   int       `json:"failedTests"`
	CreatedAt     string    `json:"createdAt"`
	Age           string    `json:"age"`
	Created       time.Time `json:"-"`
}
