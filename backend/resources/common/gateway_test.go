package common_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	"github.com/luxury-yacht/flowtest-console/backend/testsupport"
)

type recordedCall struct {
	gateway, verb string
	failed        bool
}

type callRecorder struct {
	calls []recordedCall
}

func (r *callRecorder) ObserveCall(gateway, verb string, err error, _ time.Duration) {
	r.calls = append(r.calls, recordedCall{gateway, verb, err != nil})
}

func TestDoSuccessRecordsTelemetryWithoutNotifying(t *testing.T) {
	notifier := &testsupport.RecordingNotifier{}
	recorder := &callRecorder{}
	deps := testsupport.NewResourceDependencies(
		testsupport.WithDepsNotifier(notifier),
		testsupport.WithDepsTelemetry(recorder),
	)

	got, err := common.Do(context.Background(), deps, common.Call{Gateway: "G", Verb: "list"}, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Empty(t, notifier.Calls())
	require.Equal(t, []recordedCall{{"G", "list", false}}, recorder.calls)
}

func TestDoFailureSendsErrorThenWarning(t *testing.T) {
	notifier := &testsupport.RecordingNotifier{}
	deps := testsupport.NewResourceDependencies(testsupport.WithDepsNotifier(notifier))

	_, err := common.Do(context.Background(), deps, common.Call{Gateway: "G", Verb: "get", Failure: "Failed to fetch thing"},
		func(context.Context) (string, error) { return "", errors.New("network down") })
	require.Error(t, err)
	require.Equal(t, []testsupport.Notification{
		{Variant: "error", Message: "[HTTP error]: network down"},
		{Variant: "warning", Message: "Failed to fetch thing"},
	}, notifier.Calls())
}

func TestDoFailureWithCustomHandler(t *testing.T) {
	notifier := &testsupport.RecordingNotifier{}
	deps := testsupport.NewResourceDependencies(testsupport.WithDepsNotifier(notifier))

	var handled string
	_, err := common.Do(context.Background(), deps, common.Call{
		Gateway: "G",
		Verb:    "delete",
		OnError: func(_ context.Context, msg string) { handled = msg },
	}, func(context.Context) (bool, error) { return false, errors.New("gone") })
	require.Error(t, err)
	require.Equal(t, "gone", handled)
	require.Empty(t, notifier.Calls())
}

func TestDoKeepsCallerDeadline(t *testing.T) {
	deps := testsupport.NewResourceDependencies()
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := ctx.Deadline()

	_, _ = common.Do(ctx, deps, common.Call{}, func(ctx context.Context) (struct{}, error) {
		got, _ := ctx.Deadline()
		require.Equal(t, want, got)
		return struct{}{}, nil
	})
}

func TestEnsure(t *testing.T) {
	require.NoError(t, common.Ensure(common.Dependencies{}, "pod"))
	boom := errors.New("boom")
	require.ErrorIs(t, common.Ensure(common.Dependencies{EnsureClient: func(string) error { return boom }}, "pod"), boom)
}
