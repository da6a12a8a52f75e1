package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureEmitter struct {
	mu     sync.Mutex
	toasts []Toast
}

func (c *captureEmitter) Emit(_ context.Context, toast Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, toast)
}

type countingObserver struct {
	counts map[string]int
}

func (o *countingObserver) ObserveNotification(variant string) {
	o.counts[variant]++
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Info(m string, _ ...string)  { l.lines = append(l.lines, "INFO "+m) }
func (l *recordingLogger) Warn(m string, _ ...string)  { l.lines = append(l.lines, "WARN "+m) }
func (l *recordingLogger) Error(m string, _ ...string) { l.lines = append(l.lines, "ERROR "+m) }

func TestCallsBeforeBindAreNoops(t *testing.T) {
	logger := &recordingLogger{}
	observer := &countingObserver{counts: map[string]int{}}
	svc := NewService(logger, observer)

	svc.Error(context.Background(), "dropped")
	svc.Success(context.Background(), "dropped")

	require.False(t, svc.Bound())
	require.Empty(t, logger.lines)
	require.Empty(t, observer.counts)
}

func TestEmitsAfterBind(t *testing.T) {
	observer := &countingObserver{counts: map[string]int{}}
	logger := &recordingLogger{}
	svc := NewService(logger, observer)
	emitter := &captureEmitter{}
	require.NoError(t, svc.Bind(emitter))

	ctx := context.Background()
	svc.Success(ctx, "FlowTest Created")
	svc.Warning(ctx, "Failed to create flowtest")
	svc.Info(ctx, "info")
	svc.Error(ctx, "[HTTP error]: boom")

	require.Len(t, emitter.toasts, 4)
	require.Equal(t, VariantSuccess, emitter.toasts[0].Variant)
	require.Equal(t, "FlowTest Created", emitter.toasts[0].Message)
	require.Equal(t, VariantWarning, emitter.toasts[1].Variant)
	require.Equal(t, VariantInfo, emitter.toasts[2].Variant)
	require.Equal(t, VariantError, emitter.toasts[3].Variant)
	require.NotEqual(t, emitter.toasts[0].ID, emitter.toasts[1].ID)
	require.Equal(t, 1, observer.counts["error"])
	require.Contains(t, logger.lines, "ERROR [HTTP error]: boom")
	require.Contains(t, logger.lines, "WARN Failed to create flowtest")
}

func TestBindOnce(t *testing.T) {
	svc := NewService(nil, nil)
	first := &captureEmitter{}
	second := &captureEmitter{}

	require.NoError(t, svc.Bind(first))
	require.ErrorIs(t, svc.Bind(second), ErrAlreadyBound)

	// unbinding a surface that is not bound leaves the binding alone
	svc.Unbind(second)
	require.True(t, svc.Bound())

	svc.Unbind(first)
	require.False(t, svc.Bound())
	require.NoError(t, svc.Bind(second))

	svc.Info(context.Background(), "hello")
	require.Empty(t, first.toasts)
	require.Len(t, second.toasts, 1)
}

func TestBindRejectsNil(t *testing.T) {
	require.Error(t, NewService(nil, nil).Bind(nil))
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service
	svc.Error(context.Background(), "ignored")
}
