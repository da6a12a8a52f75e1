/*
 * backend/resources/apiextensions/apiextensions.go
 *
 * CustomResourceDefinition presence checks.
 * - Confirms the FlowTest, Flow and ClusterFlow CRDs are installed and established.
 * - Backs the readiness probe and the startup log line.
 */

package apiextensions

import (
	"context"
	"fmt"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/internal/parallel"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CRDStatus is the state of one required CustomResourceDefinition.
type CRDStatus struct {
	Name        string `json:"name"`
	Present     bool   `json:"present"`
	Established bool   `json:"established"`
	Error       string `json:"error,omitempty"`
}

// Report summarises all required CRDs.
type Report struct {
	Ready bool        `json:"ready"`
	CRDs  []CRDStatus `json:"crds"`
}

type Service struct {
	deps common.Dependencies
}

func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps}
}

// Required lists the CRD names the console depends on.
func (s *Service) Required() []string {
	groups := s.deps.Groups
	return []string{
		"flowtests." + groups.FlowTest.Group,
		"flows." + groups.Flow.Group,
		"clusterflows." + groups.Flow.Group,
	}
}

// Check looks up every required CRD. Lookups run concurrently and never notify;
// the caller decides how to surface a missing CRD.
func (s *Service) Check(ctx context.Context) Report {
	names := s.Required()
	statuses := make([]CRDStatus, len(names))

	if err := common.Ensure(s.deps, "CustomResourceDefinition"); err != nil {
		for i, name := range names {
			statuses[i] = CRDStatus{Name: name, Error: err.Error()}
		}
		return Report{CRDs: statuses}
	}
	if s.deps.APIExtensionsClient == nil {
		for i, name := range names {
			statuses[i] = CRDStatus{Name: name, Error: "apiextensions client not initialized"}
		}
		return Report{CRDs: statuses}
	}

	ctx, cancel := context.WithTimeout(ctx, config.CRDCheckTimeout)
	defer cancel()

	indexes := make([]int, len(names))
	for i := range names {
		indexes[i] = i
	}
	parallel.Settle(ctx, indexes, len(names), func(ctx context.Context, i int) error {
		statuses[i] = s.check(ctx, names[i])
		return nil
	})

	ready := true
	for _, status := range statuses {
		if !status.Present || !status.Established {
			ready = false
		}
	}
	return Report{Ready: ready, CRDs: statuses}
}

func (s *Service) check(ctx context.Context, name string) CRDStatus {
	status := CRDStatus{Name: name}
	crd, err := s.deps.APIExtensionsClient.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		status.Error = "not installed"
		return status
	case err != nil:
		status.Error = err.Error()
		if s.deps.Logger != nil {
			s.deps.Logger.Warn(fmt.Sprintf("CRD check for %s failed: %v", name, err), "CRDCheck")
		}
		return status
	}

	status.Present = true
	status.Established = established(crd)
	if !status.Established {
		status.Error = "not established"
	}
	return status
}

func established(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, condition := range crd.Status.Conditions {
		if condition.Type == apiextensionsv1.Established {
			return condition.Status == apiextensionsv1.ConditionTrue
		}
	}
	return false
}

// Missing returns the names of CRDs that are absent or not yet established.
func (r Report) Missing() []string {
	var missing []string
	for _, status := range r.CRDs {
		if !status.Present || !status.Established {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
