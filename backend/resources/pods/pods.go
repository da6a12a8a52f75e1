package pods

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	corev1client "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/utils/ptr"
)

const gatewayName = "PodGateway"

var logStreamFunc = func(pods corev1client.PodInterface, ctx context.Context, podName string, opts *corev1.PodLogOptions) (io.ReadCloser, error) {
	return pods.GetLogs(podName, opts).Stream(ctx)
}

type Service struct {
	deps common.Dependencies
}

func NewService(deps common.Dependencies) *Service {
	return &Service{deps: deps}
}

// Names lists pod names in namespace for autocomplete.
func (s *Service) Names(ctx context.Context, namespace string) []string {
	call := common.Call{Gateway: gatewayName, Verb: "list", Failure: "Failed to fetch pods"}
	if err := common.Ensure(s.deps, "pod"); err != nil {
		common.Report(ctx, s.deps, call, err)
		return []string{}
	}

	list, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (*corev1.PodList, error) {
		return s.deps.KubernetesClient.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	})
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(list.Items))
	for _, pod := range list.Items {
		names = append(names, pod.Name)
	}
	sort.Strings(names)
	return names
}

// LastLogLines returns the last n log lines of a pod, empty on failure.
func (s *Service) LastLogLines(ctx context.Context, pod, namespace string, n int) []string {
	call := common.Call{Gateway: gatewayName, Verb: "logs", Failure: "Failed to fetch logs"}
	if err := common.Ensure(s.deps, "pod"); err != nil {
		common.Report(ctx, s.deps, call, err)
		return []string{}
	}
	if n <= 0 {
		n = config.DefaultLogTailLines
	}
	if n > config.MaxLogTailLines {
		n = config.MaxLogTailLines
	}

	text, err := common.Do(ctx, s.deps, call, func(ctx context.Context) (string, error) {
		stream, err := logStreamFunc(s.deps.KubernetesClient.CoreV1().Pods(namespace), ctx, pod, &corev1.PodLogOptions{
			TailLines: ptr.To(int64(n)),
		})
		if err != nil {
			return "", err
		}
		defer stream.Close()
		data, err := io.ReadAll(stream)
		return string(data), err
	})
	if err != nil {
		return []string{}
	}
	return SplitLines(text)
}

// SplitLines splits text on newlines, normalising CRLF and dropping trailing empty lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
