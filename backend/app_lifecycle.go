package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/internal/errorcapture"
)

const readHeaderTimeout = 10 * time.Second

// Startup prepares logging, notifications and cluster clients. Cluster
// connection failures are logged; the console keeps serving and retries lazily.
func (a *App) Startup(ctx context.Context) error {
	a.Ctx = ctx
	a.logger.Info("Application startup initiated", "App")

	errorcapture.Init(a.options.Verbosity, a.options.LogOutput, func(level string, _ string) {
		// klog lines already reach LogOutput; mirroring them into the logger would loop back into klog.
		a.metrics.ObserveClientLog(level)
	})
	a.logger.MirrorToKlog(true)

	log.SetFlags(0)
	log.SetOutput(&stdLogBridge{logger: a.logger})

	if err := a.notifier.Bind(a.hub); err != nil {
		return fmt.Errorf("bind toast hub: %w", err)
	}

	if err := a.initKubeClient(); err != nil {
		a.logger.Error(fmt.Sprintf("Failed to connect to cluster: %v", err), "App")
	} else {
		a.logCRDReport(ctx)
	}

	if a.usesKubeconfig() {
		a.startKubeconfigWatcher()
	}
	return nil
}

func (a *App) logCRDReport(ctx context.Context) {
	checker := a.Gateways().CRDs
	if checker == nil {
		return
	}
	report := checker.Check(ctx)
	if report.Ready {
		a.logger.Info("FlowTest custom resource definitions are installed", "App")
		return
	}
	a.logger.Warn("Missing or unready custom resource definitions: "+strings.Join(report.Missing(), ", "), "App")
}

// Serve listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	listener, err := a.listen(a.settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.settings.ListenAddress, err)
	}

	a.listener = listener
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	a.server = server
	done := make(chan struct{})
	a.serverDone = done
	a.logger.Info("Console listening on http://"+listener.Addr().String(), "App")

	errCh := make(chan error, 1)
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("console server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the watcher, detaches the toast hub and drains the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Application shutdown initiated", "App")

	if a.watcher != nil {
		a.watcher.stop()
		a.watcher = nil
	}
	a.notifier.Unbind(a.hub)

	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
		if a.serverDone != nil {
			<-a.serverDone
		}
		a.server = nil
	}

	a.logger.Info("Application shutdown completed", "App")
	return err
}

type stdLogBridge struct {
	logger *Logger
}

func (b *stdLogBridge) Write(p []byte) (int, error) {
	if b == nil || b.logger == nil {
		return len(p), nil
	}

	lines := strings.Split(string(p), "\n")
	for _, line := range lines {
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}

		lower := strings.ToLower(msg)
		switch {
		case strings.HasPrefix(lower, "error"), strings.Contains(lower, " error"), strings.HasPrefix(lower, "[error"):
			b.logger.Error(msg, "StdLog")
		case strings.HasPrefix(lower, "warn"), strings.Contains(lower, " warn"):
			b.logger.Warn(msg, "StdLog")
		default:
			b.logger.Info(msg, "StdLog")
		}
	}

	return len(p), nil
}
