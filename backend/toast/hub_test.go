package toast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/luxury-yacht/flowtest-console/backend/notify"
)

func toastWith(message string) notify.Toast {
	return notify.Toast{ID: message, Variant: notify.VariantInfo, Message: message, Time: time.Now()}
}

func messages(toasts []notify.Toast) []string {
	out := make([]string, len(toasts))
	for i, t := range toasts {
		out[i] = t.Message
	}
	return out
}

type countingObserver struct {
	connected, disconnected chan struct{}
}

func (o *countingObserver) ToastConnected()    { o.connected <- struct{}{} }
func (o *countingObserver) ToastDisconnected() { o.disconnected <- struct{}{} }

func TestEmitWithoutClientGoesToInbox(t *testing.T) {
	hub := NewHub(Config{})
	ctx := WithSession(context.Background(), "s1")

	hub.Emit(ctx, toastWith("first"))
	hub.Emit(ctx, toastWith("second"))

	require.Equal(t, []string{"first", "second"}, messages(hub.Drain("s1")))
	require.Empty(t, hub.Drain("s1"))
	require.Empty(t, hub.Drain("other"))
	require.Empty(t, hub.Drain(""))
}

func TestInboxDropsOldestBeyondCapacity(t *testing.T) {
	hub := NewHub(Config{InboxSize: 2})
	ctx := WithSession(context.Background(), "s1")
	for _, m := range []string{"a", "b", "c"} {
		hub.Emit(ctx, toastWith(m))
	}
	require.Equal(t, []string{"b", "c"}, messages(hub.Drain("s1")))
}

func TestDeferredToastsAreNotEvicted(t *testing.T) {
	hub := NewHub(Config{InboxSize: 2})
	ctx := WithSession(context.Background(), "s1")
	hub.Emit(ctx, toastWith("live-1"))
	for _, m := range []string{"d1", "d2", "d3", "d4"} {
		hub.Emit(Deferred(ctx), toastWith(m))
	}
	hub.Emit(ctx, toastWith("live-2"))
	hub.Emit(ctx, toastWith("live-3"))

	require.Equal(t, []string{"d1", "d2", "d3", "d4", "live-2", "live-3"}, messages(hub.Drain("s1")))
}

func TestBroadcastReachesEverySession(t *testing.T) {
	hub := NewHub(Config{})
	hub.Touch("s1")
	hub.Touch("s2")

	hub.Emit(context.Background(), toastWith("all"))

	require.Equal(t, []string{"all"}, messages(hub.Drain("s1")))
	require.Equal(t, []string{"all"}, messages(hub.Drain("s2")))
}

func TestIdleSessionsArePruned(t *testing.T) {
	hub := NewHub(Config{TTL: time.Minute})
	now := time.Now()
	hub.now = func() time.Time { return now }
	hub.Touch("old")

	hub.now = func() time.Time { return now.Add(2 * time.Minute) }
	hub.Emit(WithSession(context.Background(), "new"), toastWith("x"))

	hub.mu.Lock()
	_, oldExists := hub.sessions["old"]
	hub.mu.Unlock()
	require.False(t, oldExists)
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(hub.Middleware(hub))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("Cookie", SessionCookie+"="+session)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveClientReceivesToasts(t *testing.T) {
	observer := &countingObserver{connected: make(chan struct{}, 1), disconnected: make(chan struct{}, 1)}
	hub := NewHub(Config{Observer: observer})
	server := newTestServer(t, hub)
	session := "8c3d3b52-36a4-4a8e-9d5c-4b7c2c1d1a10"

	conn := dial(t, server, session)
	require.Eventually(t, func() bool { return hub.clientCount(session) == 1 }, 2*time.Second, 10*time.Millisecond)
	<-observer.connected

	hub.Emit(WithSession(context.Background(), session), toastWith("live"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.Toast
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "live", got.Message)
	require.Empty(t, hub.Drain(session))

	conn.Close()
	select {
	case <-observer.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect to be observed")
	}
	require.Equal(t, 0, hub.clientCount(session))
}

func TestDeferredToastsSkipLiveClients(t *testing.T) {
	hub := NewHub(Config{})
	server := newTestServer(t, hub)
	session := "0f0ef7c4-8f0e-4b8c-a1cf-0d9f3c1e2b77"

	dial(t, server, session)
	require.Eventually(t, func() bool { return hub.clientCount(session) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Emit(Deferred(WithSession(context.Background(), session)), toastWith("for next page"))
	require.Equal(t, []string{"for next page"}, messages(hub.Drain(session)))
}

func TestPendingToastsFlushOnConnect(t *testing.T) {
	hub := NewHub(Config{})
	server := newTestServer(t, hub)
	session := "5b7f4a0e-3c52-4d5f-9a63-2f1d7e0c9b44"

	hub.Emit(WithSession(context.Background(), session), toastWith("queued"))

	conn := dial(t, server, session)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.Toast
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "queued", got.Message)
}

func TestMiddlewareIssuesSessionCookie(t *testing.T) {
	hub := NewHub(Config{})
	var seen string
	handler := hub.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/flowtests", nil))

	require.NotEmpty(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookie, cookies[0].Name)
	require.Equal(t, seen, cookies[0].Value)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	hub := NewHub(Config{})
	var seen string
	handler := hub.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "5b7f4a0e-3c52-4d5f-9a63-2f1d7e0c9b44"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "5b7f4a0e-3c52-4d5f-9a63-2f1d7e0c9b44", seen)
	require.Empty(t, rec.Result().Cookies())
}

func TestServeHTTPRejectsForeignOrigin(t *testing.T) {
	hub := NewHub(Config{})
	server := newTestServer(t, hub)
	session := "8d2b6c1e-4f3a-4e7b-9c0d-1a2b3c4d5e6f"

	header := http.Header{}
	header.Set("Cookie", SessionCookie+"="+session)
	header.Set("Origin", "https://attacker.example")
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, 0, hub.clientCount(session))

	header.Set("Origin", server.URL)
	conn, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}

func TestServeHTTPRequiresSession(t *testing.T) {
	hub := NewHub(Config{})
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/toasts", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ws/toasts", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
