/*
 * backend/console/server.go
 *
 * HTTP surface of the console.
 * - Registers page, lookup, websocket, health and metrics routes.
 * - Wraps every route with correlation ids and request telemetry.
 * - Rejects cross-origin form posts before they reach a handler.
 */

package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/google/uuid"

	"github.com/luxury-yacht/flowtest-console/backend/capabilities"
	"github.com/luxury-yacht/flowtest-console/backend/notify"
	"github.com/luxury-yacht/flowtest-console/backend/resources/apiextensions"
	"github.com/luxury-yacht/flowtest-console/backend/resources/common"
	"github.com/luxury-yacht/flowtest-console/backend/resources/flowtests"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
)

const (
	// CorrelationIDHeader is the HTTP header used for request correlation.
	CorrelationIDHeader = "X-Correlation-ID"
)

var (
	errUnknownLookup = errors.New("unknown lookup")
	errNoGateways    = errors.New("kubernetes clients are not initialised")
	errNoAccessCheck = errors.New("capability checks are not available")
)

// FlowTestGateway lists, reads, creates and deletes FlowTests.
type FlowTestGateway interface {
	Namespace() string
	List(ctx context.Context) []restypes.FlowTestRow
	Get(ctx context.Context, namespace, name string) *restypes.FlowTest
	Create(ctx context.Context, doc map[string]any) bool
	DeleteMany(ctx context.Context, names []string) []flowtests.DeleteResult
}

// FlowGateway reads Flows and ClusterFlows.
type FlowGateway interface {
	Get(ctx context.Context, namespace, kind, name string) *restypes.Flow
	Names(ctx context.Context, namespace, kind string) []string
}

// PodGateway lists pods and tails their logs.
type PodGateway interface {
	Names(ctx context.Context, namespace string) []string
	LastLogLines(ctx context.Context, pod, namespace string, n int) []string
}

// NamespaceGateway lists namespaces.
type NamespaceGateway interface {
	Names(ctx context.Context) []string
}

// CRDChecker reports whether the required CRDs are installed.
type CRDChecker interface {
	Check(ctx context.Context) apiextensions.Report
}

// AccessChecker reports what the console's identity may do with FlowTests.
type AccessChecker interface {
	FlowTestChecks() []capabilities.CheckRequest
	Evaluate(ctx context.Context, checks []capabilities.CheckRequest) ([]capabilities.CheckResult, error)
}

// Gateways is the set of resource gateways bound to the current clients.
type Gateways struct {
	FlowTests  FlowTestGateway
	Flows      FlowGateway
	Pods       PodGateway
	Namespaces NamespaceGateway
	CRDs       CRDChecker
	// Access is optional; without it /api/capabilities answers 503.
	Access AccessChecker
}

func (g Gateways) complete() bool {
	return g.FlowTests != nil && g.Flows != nil && g.Pods != nil && g.Namespaces != nil && g.CRDs != nil
}

// Inbox hands out toasts held for a browser session.
type Inbox interface {
	Drain(sessionID string) []notify.Toast
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveHTTP(route string, code int)
}

// Config wires the server to the rest of the application.
type Config struct {
	// Gateways returns the gateways for the current clients; it is called per request.
	Gateways  func() Gateways
	Notifier  common.Notifier
	Validator *flowtests.Validator
	Logger    common.Logger
	Version   string
	// LogTailLines is the default pod log line count; zero uses the built-in default.
	LogTailLines int

	Inbox    Inbox
	Toasts   http.Handler
	Sessions func(http.Handler) http.Handler
	Metrics  http.Handler
	Observer RequestObserver
	// Logs returns the in-memory application log.
	Logs func() any
}

// Server renders the console pages and serves its JSON endpoints.
type Server struct {
	cfg       Config
	templates *template.Template
	static    fs.FS
}

// NewServer parses the embedded templates and validates the configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Gateways == nil {
		return nil, errors.New("console: gateways provider is required")
	}
	if cfg.Validator == nil {
		validator, err := flowtests.NewValidator()
		if err != nil {
			return nil, err
		}
		cfg.Validator = validator
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("console: parse templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("console: static assets: %w", err)
	}
	return &Server{cfg: cfg, templates: templates, static: static}, nil
}

// Handler returns the complete routing tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)

	var handler http.Handler = mux
	if s.cfg.Sessions != nil {
		handler = s.cfg.Sessions(handler)
	}
	return correlation(s.rejectCrossOrigin(handler))
}

// rejectCrossOrigin answers 403 to unsafe requests that a browser sent from
// another origin, judged by Sec-Fetch-Site or by Origin against Host.
// Requests without either header (curl, tests) pass.
func (s *Server) rejectCrossOrigin(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := protection.Check(r); err != nil {
			if s.cfg.Logger != nil {
				s.cfg.Logger.Warn(fmt.Sprintf("Rejected %s %s from origin %q", r.Method, r.URL.Path, r.Header.Get("Origin")), "Console")
			}
			writeError(w, http.StatusForbidden, err, correlationIDFrom(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register attaches the console routes to the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	s.handle(mux, "GET /{$}", http.HandlerFunc(s.handleRoot))
	s.handle(mux, "GET /flowtests", http.HandlerFunc(s.handleList))
	s.handle(mux, "POST /flowtests/delete", http.HandlerFunc(s.handleDelete))
	s.handle(mux, "GET /flowtests/new", http.HandlerFunc(s.handleCreateForm))
	s.handle(mux, "POST /flowtests/new", http.HandlerFunc(s.handleCreateSubmit))
	s.handle(mux, "GET /flowtests/{namespace}/{name}", http.HandlerFunc(s.handleDetail))
	s.handle(mux, "GET /flowtest/{name}", http.HandlerFunc(s.handleLegacyDetail))

	s.handle(mux, "GET /api/flowtests", http.HandlerFunc(s.handleRowsJSON))
	s.handle(mux, "GET /api/lookups/{lookup}", http.HandlerFunc(s.handleLookup))
	s.handle(mux, "GET /api/logs", http.HandlerFunc(s.handleLogs))
	s.handle(mux, "GET /api/capabilities", http.HandlerFunc(s.handleCapabilities))

	s.handle(mux, "GET /healthz", http.HandlerFunc(s.handleHealth))
	s.handle(mux, "GET /readyz", http.HandlerFunc(s.handleReady))
	if s.cfg.Metrics != nil {
		s.handle(mux, "GET /metrics", s.cfg.Metrics)
	}
	if s.cfg.Toasts != nil {
		// not instrumented: the status is recorded when the socket closes
		mux.Handle("/ws/toasts", s.cfg.Toasts)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		if s.cfg.Observer != nil {
			s.cfg.Observer.ObserveHTTP(pattern, rec.status)
		}
	}))
}

// gateways resolves the gateway set or answers 503.
func (s *Server) gateways(w http.ResponseWriter, r *http.Request) (Gateways, bool) {
	gw := s.cfg.Gateways()
	if !gw.complete() {
		writeError(w, http.StatusServiceUnavailable, errNoGateways, correlationIDFrom(r.Context()))
		return Gateways{}, false
	}
	return gw, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	report := gw.CRDs.Check(r.Context())
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	if gw.Access == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAccessCheck, correlationIDFrom(r.Context()))
		return
	}
	results, err := gw.Access.Evaluate(r.Context(), gw.Access.FlowTestChecks())
	if err != nil {
		writeError(w, http.StatusBadGateway, err, correlationIDFrom(r.Context()))
		return
	}
	allowed := make(map[string]bool, len(results))
	for _, result := range results {
		allowed[result.Verb] = result.Allowed
	}
	writeJSON(w, http.StatusOK, map[string]any{"allowed": allowed, "checks": results})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var entries any = []any{}
	if s.cfg.Logs != nil {
		entries = s.cfg.Logs()
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) logError(msg string) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Error(msg, "Console")
	}
}

type correlationKey struct{}

// correlation assigns every request a correlation id and echoes it on the response.
func correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := getCorrelationID(r)
		setCorrelationID(w, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

func correlationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// getCorrelationID extracts the correlation ID from the request header or generates a new one.
func getCorrelationID(r *http.Request) string {
	if id := r.Header.Get(CorrelationIDHeader); id != "" {
		return id
	}
	return uuid.NewString()[:8] // Short 8-char ID for readability
}

// setCorrelationID sets the correlation ID on the response header.
func setCorrelationID(w http.ResponseWriter, correlationID string) {
	if correlationID != "" {
		w.Header().Set(CorrelationIDHeader, correlationID)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	setCorrelationID(w, correlationID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId,omitempty"`
	}{
		Code:          http.StatusText(status),
		Message:       err.Error(),
		CorrelationID: correlationID,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
