/*
 * backend/resources/common/gateway.go
 *
 * Shared call wrapper for resource gateways.
 * - Applies the request timeout and records telemetry.
 * - Converts failures into an error notification plus a warning.
 */

package common

import (
	"context"
	"fmt"
	"time"

	"github.com/luxury-yacht/flowtest-console/backend/internal/errorcapture"
)

// Call describes one gateway request.
type Call struct {
	Gateway string
	Verb    string
	// Failure is the warning shown after the transport error, e.g. "Failed to fetch pods".
	Failure string
	// OnError replaces the default error notification pair when set.
	OnError func(ctx context.Context, message string)
}

// Do runs fn under the dependency timeout. On error it logs, sends
// "[HTTP error]: <message>" followed by the Failure warning, and returns the error
// so the caller can substitute its fallback value.
func Do[T any](ctx context.Context, deps Dependencies, call Call, fn func(context.Context) (T, error)) (T, error) {
	if deps.RequestTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.RequestTimeout)
			defer cancel()
		}
	}

	started := time.Now()
	result, err := fn(ctx)
	if deps.Telemetry != nil {
		deps.Telemetry.ObserveCall(call.Gateway, call.Verb, err, time.Since(started))
	}
	if err != nil {
		Report(ctx, deps, call, err)
	}
	return result, err
}

// Report sends the notifications for a failed call without running one.
func Report(ctx context.Context, deps Dependencies, call Call, err error) {
	msg := errorcapture.Describe(err)
	if deps.Logger != nil {
		deps.Logger.Error(fmt.Sprintf("%s %s failed: %s", call.Gateway, call.Verb, msg), call.Gateway)
	}
	if call.OnError != nil {
		call.OnError(ctx, msg)
		return
	}
	if deps.Notifier == nil {
		return
	}
	deps.Notifier.Error(ctx, "[HTTP error]: "+msg)
	if call.Failure != "" {
		deps.Notifier.Warning(ctx, call.Failure)
	}
}

// Ensure runs the dependency client initialiser when one is configured.
func Ensure(deps Dependencies, resourceKind string) error {
	if deps.EnsureClient != nil {
		return deps.EnsureClient(resourceKind)
	}
	return nil
}
