package console

import (
	"net/http"
	"strconv"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/views"
)

// LookupResponse is the body of every cascading lookup. Gen echoes the
// request's generation token so the page script can drop stale responses.
type LookupResponse struct {
	Gen     string   `json:"gen"`
	Enabled bool     `json:"enabled"`
	Items   []string `json:"items"`
}

// lookupParams lists the query parameters a lookup needs before it is issued.
var lookupParams = map[string][]string{
	"namespaces": nil,
	"pods":       {"namespace"},
	"flows":      {"kind", "namespace"},
	"logs":       {"namespace", "pod"},
}

func (s *Server) handleRowsJSON(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	rows := gw.FlowTests.List(r.Context())
	views.SortRows(rows, views.ParseListQuery(r.URL.Query()))
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	lookup := r.PathValue("lookup")
	required, known := lookupParams[lookup]
	if !known {
		writeError(w, http.StatusNotFound, errUnknownLookup, correlationIDFrom(r.Context()))
		return
	}
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	resp := LookupResponse{Gen: query.Get("gen"), Items: []string{}}
	for _, param := range required {
		if query.Get(param) == "" {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}
	resp.Enabled = true

	ctx := r.Context()
	switch lookup {
	case "namespaces":
		resp.Items = gw.Namespaces.Names(ctx)
	case "pods":
		resp.Items = gw.Pods.Names(ctx, query.Get("namespace"))
	case "flows":
		resp.Items = gw.Flows.Names(ctx, query.Get("namespace"), query.Get("kind"))
	case "logs":
		lines := s.cfg.LogTailLines
		if lines <= 0 {
			lines = config.DefaultLogTailLines
		}
		if n, err := strconv.Atoi(query.Get("lines")); err == nil {
			lines = n
		}
		resp.Items = gw.Pods.LastLogLines(ctx, query.Get("pod"), query.Get("namespace"), lines)
	}
	writeJSON(w, http.StatusOK, resp)
}
