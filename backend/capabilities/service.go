/*
 * backend/capabilities/service.go
 *
 * Evaluates what the console's Kubernetes identity may do with FlowTests by
 * submitting SelfSubjectAccessReview requests.
 */

package capabilities

import (
	"context"
	"errors"
	"fmt"
	"time"

	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/luxury-yacht/flowtest-console/backend/internal/parallel"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
)

const (
	reviewConcurrency = 4
	slowThreshold     = 750 * time.Millisecond
)

// CheckRequest names one verb on one resource.
type CheckRequest struct {
	ID        string `json:"id"`
	Verb      string `json:"verb"`
	Group     string `json:"group,omitempty"`
	Resource  string `json:"resource"`
	Namespace string `json:"namespace,omitempty"`
}

// CheckResult captures the outcome of a capability evaluation.
type CheckResult struct {
	ID              string `json:"id"`
	Verb            string `json:"verb"`
	Resource        string `json:"resource"`
	Namespace       string `json:"namespace,omitempty"`
	Allowed         bool   `json:"allowed"`
	DeniedReason    string `json:"deniedReason,omitempty"`
	EvaluationError string `json:"evaluationError,omitempty"` // returned by the API server
	Error           string `json:"error,omitempty"`           // the review request itself failed
}

// Service evaluates capability checks against the Kubernetes API.
type Service struct {
	deps common.Dependencies
	now  func() time.Time
}

// NewService constructs a capability evaluation service.
func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps, now: time.Now}
}

// FlowTestChecks lists the console actions that depend on RBAC: reading,
// creating and deleting FlowTests in the configured namespace.
func (s *Service) FlowTestChecks() []CheckRequest {
	group := s.deps.Groups.FlowTest.Group
	checks := make([]CheckRequest, 0, 3)
	for _, verb := range []string{"list", "create", "delete"} {
		checks = append(checks, CheckRequest{
			ID:        verb + "-flowtests",
			Verb:      verb,
			Group:     group,
			Resource:  "flowtests",
			Namespace: s.deps.Namespace,
		})
	}
	return checks
}

// Evaluate submits one review per check. Individual failures are recorded in
// the results; an error is returned only when every review failed.
func (s *Service) Evaluate(ctx context.Context, checks []CheckRequest) ([]CheckResult, error) {
	results := make([]CheckResult, len(checks))
	if len(checks) == 0 {
		return results, nil
	}
	if err := common.Ensure(s.deps, "SelfSubjectAccessReview"); err != nil {
		return nil, err
	}
	if s.deps.KubernetesClient == nil {
		return nil, errors.New("kubernetes client not initialized")
	}

	indexes := make([]int, len(checks))
	for i := range checks {
		indexes[i] = i
	}
	errs := parallel.Settle(ctx, indexes, reviewConcurrency, func(ctx context.Context, i int) error {
		results[i] = s.review(ctx, checks[i])
		if results[i].Error != "" {
			return errors.New(results[i].Error)
		}
		return nil
	})

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(checks) {
		return results, fmt.Errorf("all %d capability checks failed: %w", failed, errors.Join(errs...))
	}
	return results, nil
}

func (s *Service) review(ctx context.Context, check CheckRequest) CheckResult {
	result := CheckResult{
		ID:        check.ID,
		Verb:      check.Verb,
		Resource:  check.Resource,
		Namespace: check.Namespace,
	}
	review := &authorizationv1.SelfSubjectAccessReview{
		Spec: authorizationv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authorizationv1.ResourceAttributes{
				Namespace: check.Namespace,
				Verb:      check.Verb,
				Group:     check.Group,
				Resource:  check.Resource,
			},
		},
	}

	start := s.now()
	response, err := s.deps.KubernetesClient.AuthorizationV1().
		SelfSubjectAccessReviews().
		Create(ctx, review, metav1.CreateOptions{})
	duration := s.now().Sub(start)

	if err != nil {
		s.logWarn(fmt.Sprintf("Capability check %s failed: %v", check.ID, err))
		result.Error = err.Error()
		return result
	}
	result.Allowed = response.Status.Allowed
	result.DeniedReason = response.Status.Reason
	result.EvaluationError = response.Status.EvaluationError
	if duration > slowThreshold {
		s.logWarn(fmt.Sprintf("Capability check %s slow: %s", check.ID, duration))
	}
	return result
}

func (s *Service) logWarn(message string) {
	if s.deps.Logger != nil {
		s.deps.Logger.Warn(message, "Capabilities")
	}
}
