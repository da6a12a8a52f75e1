package capabilities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	authorizationv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	kubetesting "k8s.io/client-go/testing"

	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	"github.com/luxury-yacht/flowtest-console/backend/testsupport"
)

type captureLogger struct {
	testsupport.NoopLogger
	warns []string
}

func (l *captureLogger) Warn(message string, _ ...string) { l.warns = append(l.warns, message) }

func newService(client *fake.Clientset, opts ...testsupport.DependenciesOption) *Service {
	opts = append([]testsupport.DependenciesOption{testsupport.WithDepsKubeClient(client)}, opts...)
	return NewService(testsupport.NewResourceDependencies(opts...))
}

// allowVerbs answers reviews, allowing only the listed verbs.
func allowVerbs(client *fake.Clientset, verbs ...string) {
	allowed := map[string]bool{}
	for _, verb := range verbs {
		allowed[verb] = true
	}
	client.PrependReactor("create", "selfsubjectaccessreviews", func(action kubetesting.Action) (bool, runtime.Object, error) {
		review := action.(kubetesting.CreateAction).GetObject().(*authorizationv1.SelfSubjectAccessReview)
		attrs := review.Spec.ResourceAttributes
		review = review.DeepCopy()
		review.Status.Allowed = allowed[attrs.Verb]
		if !review.Status.Allowed {
			review.Status.Reason = "no RBAC policy matched"
		}
		return true, review, nil
	})
}

func TestFlowTestChecksTargetNamespace(t *testing.T) {
	service := newService(fake.NewClientset(), testsupport.WithDepsNamespace("logging"))

	checks := service.FlowTestChecks()
	require.Len(t, checks, 3)
	for _, check := range checks {
		require.Equal(t, "logging", check.Namespace)
		require.Equal(t, "flowtests", check.Resource)
		require.Equal(t, testsupport.Groups.FlowTest.Group, check.Group)
	}
	require.Equal(t, []string{"list", "create", "delete"}, []string{checks[0].Verb, checks[1].Verb, checks[2].Verb})
}

func TestEvaluateReportsAllowedAndDenied(t *testing.T) {
	client := fake.NewClientset()
	allowVerbs(client, "list", "create")
	service := newService(client)

	results, err := service.Evaluate(context.Background(), service.FlowTestChecks())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].Allowed)
	require.True(t, results[1].Allowed)
	require.False(t, results[2].Allowed)
	require.Equal(t, "delete-flowtests", results[2].ID)
	require.Equal(t, "no RBAC policy matched", results[2].DeniedReason)
}

func TestEvaluatePartialFailureKeepsResults(t *testing.T) {
	client := fake.NewClientset()
	allowVerbs(client, "list", "create", "delete")
	client.PrependReactor("create", "selfsubjectaccessreviews", func(action kubetesting.Action) (bool, runtime.Object, error) {
		review := action.(kubetesting.CreateAction).GetObject().(*authorizationv1.SelfSubjectAccessReview)
		if review.Spec.ResourceAttributes.Verb == "delete" {
			return true, nil, errors.New("etcdserver: request timed out")
		}
		return false, nil, nil
	})
	logger := &captureLogger{}
	service := newService(client, testsupport.WithDepsLogger(logger))

	results, err := service.Evaluate(context.Background(), service.FlowTestChecks())
	require.NoError(t, err)
	require.True(t, results[0].Allowed)
	require.Equal(t, "etcdserver: request timed out", results[2].Error)
	require.Len(t, logger.warns, 1)
	require.Contains(t, logger.warns[0], "Capability check delete-flowtests failed")
}

func TestEvaluateAllFailed(t *testing.T) {
	client := fake.NewClientset()
	client.PrependReactor("create", "selfsubjectaccessreviews", func(kubetesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})
	service := newService(client)

	results, err := service.Evaluate(context.Background(), service.FlowTestChecks())
	require.ErrorContains(t, err, "all 3 capability checks failed")
	require.Len(t, results, 3)
}

func TestEvaluateLogsSlowReviews(t *testing.T) {
	client := fake.NewClientset()
	allowVerbs(client, "list")
	logger := &captureLogger{}
	service := newService(client, testsupport.WithDepsLogger(logger))
	tick := time.Unix(0, 0)
	service.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	_, err := service.Evaluate(context.Background(), service.FlowTestChecks()[:1])
	require.NoError(t, err)
	require.Len(t, logger.warns, 1)
	require.Contains(t, logger.warns[0], "Capability check list-flowtests slow: 1s")
}

func TestEvaluateRequiresClient(t *testing.T) {
	service := NewService(common.Dependencies{
		EnsureClient: func(string) error { return errors.New("no cluster") },
	})

	_, err := service.Evaluate(context.Background(), []CheckRequest{{ID: "x", Verb: "get", Resource: "pods"}})
	require.ErrorContains(t, err, "no cluster")

	results, err := service.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
}
