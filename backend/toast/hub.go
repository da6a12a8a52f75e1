/*
 * backend/toast/hub.go
 *
 * Browser display surface for notifications.
 * - Live websocket clients receive toasts as they happen.
 * - Toasts for sessions without a live client, or raised while a page is
 *   being rendered, wait in a bounded per-session inbox.
 * - Deferred toasts are pinned: the bound only evicts live toasts that found
 *   no client, so every outcome of a request reaches its page.
 */

package toast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/notify"
)

// Logger captures the logging operations needed by the hub.
type Logger interface {
	Debug(message string, source ...string)
	Warn(message string, source ...string)
}

// ConnectionObserver is told when toast sockets open and close.
type ConnectionObserver interface {
	ToastConnected()
	ToastDisconnected()
}

type wsConn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(time.Time) error
	Close() error
}

// Config captures the dependencies of a Hub.
type Config struct {
	Logger    Logger
	Observer  ConnectionObserver
	InboxSize int
	TTL       time.Duration
}

// Hub implements notify.Emitter for browser sessions.
type Hub struct {
	mu        sync.Mutex
	sessions  map[string]*session
	logger    Logger
	observer  ConnectionObserver
	inboxSize int
	ttl       time.Duration
	now       func() time.Time
	upgrader  websocket.Upgrader
}

type session struct {
	inbox    []pending
	clients  map[*client]struct{}
	lastSeen time.Time
}

type pending struct {
	toast  notify.Toast
	pinned bool
}

type client struct {
	conn      wsConn
	outgoing  chan notify.Toast
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub constructs a Hub.
func NewHub(cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = config.ToastInboxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = config.ToastSessionTTL
	}
	return &Hub{
		sessions:  make(map[string]*session),
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		inboxSize: cfg.InboxSize,
		ttl:       cfg.TTL,
		now:       time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   config.ToastReadBufferSize,
			WriteBufferSize:  config.ToastWriteBufferSize,
			HandshakeTimeout: config.ToastHandshakeTimeout,
			// nil CheckOrigin: the upgrader rejects an Origin whose host differs from Host
		},
	}
}

// Emit delivers toast to the session carried by ctx, or to every session when there is none.
func (h *Hub) Emit(ctx context.Context, toast notify.Toast) {
	id := SessionFrom(ctx)
	deferred := isDeferred(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked()

	if id == "" {
		for _, s := range h.sessions {
			h.deliverLocked(s, toast, deferred)
		}
		return
	}
	h.deliverLocked(h.sessionLocked(id), toast, deferred)
}

func (h *Hub) deliverLocked(s *session, toast notify.Toast, deferred bool) {
	if deferred || len(s.clients) == 0 {
		h.pushInboxLocked(s, toast, deferred)
		return
	}
	for c := range s.clients {
		select {
		case c.outgoing <- toast:
		default:
			// slow socket; keep the toast for the next page render
			h.pushInboxLocked(s, toast, false)
			return
		}
	}
}

func (h *Hub) pushInboxLocked(s *session, toast notify.Toast, pinned bool) {
	s.inbox = append(s.inbox, pending{toast: toast, pinned: pinned})

	unpinned := 0
	for _, entry := range s.inbox {
		if !entry.pinned {
			unpinned++
		}
	}
	over := unpinned - h.inboxSize
	if over <= 0 {
		return
	}
	h.logger.Debug(fmt.Sprintf("toast inbox full, dropping %d oldest", over), "ToastHub")
	kept := make([]pending, 0, len(s.inbox)-over)
	for _, entry := range s.inbox {
		if !entry.pinned && over > 0 {
			over--
			continue
		}
		kept = append(kept, entry)
	}
	s.inbox = kept
}

// Drain returns and clears the pending toasts of session id.
func (h *Hub) Drain(id string) []notify.Toast {
	if id == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil
	}
	s.lastSeen = h.now()
	toasts := make([]notify.Toast, 0, len(s.inbox))
	for _, entry := range s.inbox {
		toasts = append(toasts, entry.toast)
	}
	s.inbox = nil
	return toasts
}

func (h *Hub) clientCount(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		return len(s.clients)
	}
	return 0
}

// Touch registers session id so broadcasts reach it.
func (h *Hub) Touch(id string) {
	if id == "" {
		return
	}
	h.mu.Lock()
	h.sessionLocked(id)
	h.mu.Unlock()
}

func (h *Hub) sessionLocked(id string) *session {
	s, ok := h.sessions[id]
	if !ok {
		s = &session{clients: make(map[*client]struct{})}
		h.sessions[id] = s
	}
	s.lastSeen = h.now()
	return s
}

func (h *Hub) pruneLocked() {
	cutoff := h.now().Add(-h.ttl)
	for id, s := range h.sessions {
		if len(s.clients) == 0 && s.lastSeen.Before(cutoff) {
			delete(h.sessions, id)
		}
	}
}

// ServeHTTP upgrades the request to a websocket that streams toasts for the request's session.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := SessionFrom(r.Context())
	if id == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(fmt.Sprintf("toast upgrade failed: %v", err), "ToastHub")
		return
	}
	h.serveConn(r.Context(), id, conn)
}

func (h *Hub) serveConn(ctx context.Context, id string, conn wsConn) {
	h.mu.Lock()
	s := h.sessionLocked(id)
	c := &client{
		conn:     conn,
		outgoing: make(chan notify.Toast, h.inboxSize+len(s.inbox)),
		done:     make(chan struct{}),
	}
	s.clients[c] = struct{}{}
	for _, entry := range s.inbox {
		c.outgoing <- entry.toast
	}
	s.inbox = nil
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ToastConnected()
		defer h.observer.ToastDisconnected()
	}

	go h.writeLoop(ctx, c)
	h.readLoop(c)

	h.mu.Lock()
	delete(s.clients, c)
	s.lastSeen = h.now()
	h.mu.Unlock()
	c.close()

	// anything still queued goes back to the inbox
	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		select {
		case toast := <-c.outgoing:
			h.pushInboxLocked(s, toast, false)
		default:
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !isExpectedCloseError(err) {
				h.logger.Debug(fmt.Sprintf("toast socket read ended: %v", err), "ToastHub")
			}
			return
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ping := time.NewTicker(config.ToastPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case <-c.done:
			return
		case toast := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.ToastWriteTimeout))
			if err := c.conn.WriteJSON(toast); err != nil {
				h.logger.Warn(fmt.Sprintf("toast write failed: %v", err), "ToastHub")
				c.close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(config.ToastWriteTimeout)); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Page navigations close the websocket without a close status or after we send a close.
func isExpectedCloseError(err error) bool {
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	return websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...string) {}
func (noopLogger) Warn(string, ...string)  {}
