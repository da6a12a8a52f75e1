package console

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/luxury-yacht/flowtest-console/backend/notify"
	"github.com/luxury-yacht/flowtest-console/backend/toast"
)

//go:embed templates/*.html static/*
var assets embed.FS

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
}

func parseTemplates() (*template.Template, error) {
	return template.New("console").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
}

// Page is the data every page template receives.
type Page struct {
	Title         string
	Version       string
	CorrelationID string
	Toasts        []notify.Toast
	Model         any
}

// render executes a page template into a buffer so a template failure can
// still produce a clean error response. Toasts raised while building the page
// are drained from the session inbox and rendered inline.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, model any) {
	page := Page{
		Title:         title,
		Version:       s.cfg.Version,
		CorrelationID: correlationIDFrom(r.Context()),
		Model:         model,
	}
	if s.cfg.Inbox != nil {
		if id := toast.SessionFrom(r.Context()); id != "" {
			page.Toasts = s.cfg.Inbox.Drain(id)
		}
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, page); err != nil {
		s.logError("render " + name + ": " + err.Error())
		writeError(w, http.StatusInternalServerError, err, page.CorrelationID)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
