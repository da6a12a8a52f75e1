package toast

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie names the cookie that ties a browser to its toast session.
const SessionCookie = "flowtest_console_session"

type sessionKey struct{}
type deferredKey struct{}

// WithSession returns a context whose toasts are addressed to session id.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id carried by ctx.
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Deferred marks toasts raised under ctx for the session inbox, so the page
// rendered for this request (or the one it redirects to) shows them.
func Deferred(ctx context.Context) context.Context {
	return context.WithValue(ctx, deferredKey{}, true)
}

func isDeferred(ctx context.Context) bool {
	deferred, _ := ctx.Value(deferredKey{}).(bool)
	return deferred
}

// Middleware assigns each browser a session cookie and adds the session to the request context.
func (h *Hub) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		h.Touch(id)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), id)))
	})
}
