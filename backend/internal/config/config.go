/*
 * backend/internal/config/config.go
 *
 * Timing and sizing settings used across the console backend.
 */

package config

import "time"

// Timing knobs used across the console backend.
const (
	// RequestTimeout bounds every call the resource gateways make to the Kubernetes API.
	RequestTimeout = 30 * time.Second

	// CreateRedirectDelay is how long the create page shows its success state before
	// the browser is sent back to the FlowTest list.
	CreateRedirectDelay = 2 * time.Second

	// DefaultLogTailLines seeds the log-tail helper on the create page.
	DefaultLogTailLines = 10

	// MaxLogTailLines caps the number of log lines a user can request from a pod.
	MaxLogTailLines = 500

	// DeleteConcurrency limits concurrent DELETE calls issued by a batch delete.
	DeleteConcurrency = 4

	// CRDCheckTimeout bounds the readiness probe's custom resource definition lookups.
	CRDCheckTimeout = 5 * time.Second

	// ClientRetryBackoff is how long requests wait after a failed client build
	// before trying to reach the cluster again.
	ClientRetryBackoff = 2 * time.Second

	// KubeconfigDebounce coalesces bursts of filesystem events before clients are rebuilt.
	KubeconfigDebounce = 500 * time.Millisecond

	// ShutdownTimeout is the grace period the HTTP server gets to drain connections.
	ShutdownTimeout = 10 * time.Second

	// LoggerMaxEntries caps the in-memory log ring.
	LoggerMaxEntries = 1000

	// ToastInboxSize caps undelivered live toasts held per browser session.
	// Toasts deferred for a page render are not counted.
	ToastInboxSize = 20

	// ToastSessionTTL is how long an idle browser session keeps its inbox.
	ToastSessionTTL = 30 * time.Minute

	// ToastWriteTimeout bounds websocket writes for toast delivery.
	ToastWriteTimeout = 10 * time.Second

	// ToastHandshakeTimeout bounds websocket upgrade handshakes.
	ToastHandshakeTimeout = 45 * time.Second

	// ToastPingInterval is how often idle toast sockets are pinged.
	ToastPingInterval = 30 * time.Second

	// ToastReadBufferSize configures websocket read buffer sizing.
	ToastReadBufferSize = 1024

	// ToastWriteBufferSize configures websocket write buffer sizing.
	ToastWriteBufferSize = 4096
)
