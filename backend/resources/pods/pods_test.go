package pods

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	kubefake "k8s.io/client-go/kubernetes/fake"
	corev1client "k8s.io/client-go/kubernetes/typed/core/v1"
	k8stesting "k8s.io/client-go/testing"

	"github.com/luxury-yacht/flowtest-console/backend/testsupport"
)

func stubLogStream(t *testing.T, fn func(podName string, opts *corev1.PodLogOptions) (io.ReadCloser, error)) {
	t.Helper()
	original := logStreamFunc
	logStreamFunc = func(_ corev1client.PodInterface, _ context.Context, podName string, opts *corev1.PodLogOptions) (io.ReadCloser, error) {
		return fn(podName, opts)
	}
	t.Cleanup(func() { logStreamFunc = original })
}

func TestNamesListsPodsInNamespace(t *testing.T) {
	client := kubefake.NewClientset(
		testsupport.PodFixture("logging", "fluentd-0"),
		testsupport.PodFixture("logging", "api-7c9"),
		testsupport.PodFixture("other", "elsewhere"),
	)
	service := NewService(testsupport.NewResourceDependencies(testsupport.WithDepsKubeClient(client)))

	require.Equal(t, []string{"api-7c9", "fluentd-0"}, service.Names(context.Background(), "logging"))
}

func TestNamesFailureNotifies(t *testing.T) {
	client := kubefake.NewClientset()
	client.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("timeout")
	})
	notifier := &testsupport.RecordingNotifier{}
	service := NewService(testsupport.NewResourceDependencies(
		testsupport.WithDepsKubeClient(client),
		testsupport.WithDepsNotifier(notifier),
	))

	require.Empty(t, service.Names(context.Background(), "logging"))
	require.Equal(t, []string{"[HTTP error]: timeout"}, notifier.Messages("error"))
	require.Equal(t, []string{"Failed to fetch pods"}, notifier.Messages("warning"))
}

func TestLastLogLinesRequestsTailAndSplits(t *testing.T) {
	var gotPod string
	var gotTail int64
	stubLogStream(t, func(podName string, opts *corev1.PodLogOptions) (io.ReadCloser, error) {
		gotPod = podName
		gotTail = *opts.TailLines
		return io.NopCloser(strings.NewReader("first\r\nsecond\nthird\n\n")), nil
	})
	service := NewService(testsupport.NewResourceDependencies(testsupport.WithDepsKubeClient(kubefake.NewClientset())))

	lines := service.LastLogLines(context.Background(), "api-7c9", "logging", 3)
	require.Equal(t, "api-7c9", gotPod)
	require.Equal(t, int64(3), gotTail)
	require.Equal(t, []string{"first", "second", "third"}, lines)
}

func TestLastLogLinesClampsLineCount(t *testing.T) {
	var gotTail int64
	stubLogStream(t, func(_ string, opts *corev1.PodLogOptions) (io.ReadCloser, error) {
		gotTail = *opts.TailLines
		return io.NopCloser(strings.NewReader("")), nil
	})
	service := NewService(testsupport.NewResourceDependencies(testsupport.WithDepsKubeClient(kubefake.NewClientset())))

	require.Empty(t, service.LastLogLines(context.Background(), "p", "ns", 100000))
	require.Equal(t, int64(500), gotTail)
}

func TestLastLogLinesFailureNotifies(t *testing.T) {
	stubLogStream(t, func(string, *corev1.PodLogOptions) (io.ReadCloser, error) {
		return nil, errors.New("container not found")
	})
	notifier := &testsupport.RecordingNotifier{}
	service := NewService(testsupport.NewResourceDependencies(
		testsupport.WithDepsKubeClient(kubefake.NewClientset()),
		testsupport.WithDepsNotifier(notifier),
	))

	require.Empty(t, service.LastLogLines(context.Background(), "p", "ns", 5))
	require.Equal(t, []string{"Failed to fetch logs"}, notifier.Messages("warning"))
}

func TestSplitLines(t *testing.T) {
	require.Equal(t, []string{}, SplitLines(""))
	require.Equal(t, []string{}, SplitLines("\n\n"))
	require.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb\n"))
	require.Equal(t, []string{"only"}, SplitLines("only"))
}
