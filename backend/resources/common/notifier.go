/*
 * backend/resources/common/notifier.go
 *
 * Outcome reporting interfaces for resource gateways.
 */

package common

import (
	"context"
	"time"
)

// Notifier receives user-visible outcomes of gateway calls.
type Notifier interface {
	Success(ctx context.Context, message string)
	Warning(ctx context.Context, message string)
	Info(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Recorder observes gateway calls for telemetry.
type Recorder interface {
	ObserveCall(gateway, verb string, err error, elapsed time.Duration)
}
