/*
 * backend/console/pages.go
 *
 * List, create and detail pages.
 * - Gateway calls made while building a page defer their toasts to the
 *   session inbox so the rendered page (or the page a redirect lands on) shows them.
 */

package console

import (
	"context"
	"net/http"
	"net/url"

	"github.com/luxury-yacht/flowtest-console/backend/resources/flows"
	"github.com/luxury-yacht/flowtest-console/backend/resources/flowtests"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
	"github.com/luxury-yacht/flowtest-console/backend/toast"
	"github.com/luxury-yacht/flowtest-console/backend/views"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/flowtests", http.StatusFound)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	ctx := toast.Deferred(r.Context())
	model := views.NewListModel(gw.FlowTests.List(ctx), views.ParseListQuery(r.URL.Query()))
	s.render(w, r, http.StatusOK, "list", "FlowTests", model)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err, correlationIDFrom(r.Context()))
		return
	}
	if names := views.Selection(r.PostForm); len(names) > 0 {
		gw.FlowTests.DeleteMany(toast.Deferred(r.Context()), names)
	}
	http.Redirect(w, r, listLocation(r.PostForm), http.StatusSeeOther)
}

// listLocation keeps the sort the user was looking at when they deleted.
func listLocation(form url.Values) string {
	q := views.ParseListQuery(form)
	return "/flowtests?" + url.Values{"sort": {q.Sort}, "order": {q.Order}}.Encode()
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	ctx := toast.Deferred(r.Context())
	in := views.EmptyCreateInput(s.cfg.LogTailLines)
	s.render(w, r, http.StatusOK, "create", "Create FlowTest", views.NewCreateModel(views.StateEditing, in, s.options(ctx, gw)))
}

func (s *Server) handleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err, correlationIDFrom(r.Context()))
		return
	}
	ctx := toast.Deferred(r.Context())
	in := views.ParseCreateInput(r.PostForm, s.cfg.LogTailLines)

	switch in.Action {
	case views.ActionReset:
		http.Redirect(w, r, "/flowtests/new", http.StatusSeeOther)
		return
	case views.ActionCreate:
		s.submit(ctx, w, r, gw, in)
		return
	}

	if in.ShouldSeedLogs() {
		if lines := gw.Pods.LastLogLines(ctx, in.Values[views.FieldPodName], in.Values[views.FieldPodNamespace], in.LineCount); len(lines) > 0 {
			in.Seed(lines)
		}
	}
	s.render(w, r, http.StatusOK, "create", "Create FlowTest", views.NewCreateModel(views.StateEditing, in, s.options(ctx, gw)))
}

// submit validates the form and creates the FlowTest. Validation failures
// never reach the API.
func (s *Server) submit(ctx context.Context, w http.ResponseWriter, r *http.Request, gw Gateways, in views.CreateInput) {
	doc := in.Form().Document()
	if errs := s.cfg.Validator.Validate(doc); errs != nil {
		if s.cfg.Notifier != nil {
			s.cfg.Notifier.Error(ctx, flowtests.FirstMessage(errs))
		}
		state := views.StateFailed.Next(false)
		s.render(w, r, http.StatusUnprocessableEntity, "create", "Create FlowTest", views.NewCreateModel(state, in, s.options(ctx, gw)))
		return
	}

	state := views.StateSubmitting.Next(gw.FlowTests.Create(ctx, doc))
	if state == views.StateSucceeded {
		s.render(w, r, http.StatusCreated, "create", "Create FlowTest", views.NewCreateModel(state, views.EmptyCreateInput(s.cfg.LogTailLines), nil))
		return
	}
	s.render(w, r, http.StatusOK, "create", "Create FlowTest", views.NewCreateModel(state.Next(false), in, s.options(ctx, gw)))
}

// options resolves lookup options for the create page. Namespaces are fetched
// at most once per render.
func (s *Server) options(ctx context.Context, gw Gateways) views.OptionSource {
	var namespaces []string
	return func(d views.Dependency, values map[string]string) []string {
		switch d.Lookup {
		case views.LookupNamespaces:
			if namespaces == nil {
				namespaces = gw.Namespaces.Names(ctx)
			}
			return namespaces
		case views.LookupPods:
			return gw.Pods.Names(ctx, values[views.FieldPodNamespace])
		case views.LookupFlows:
			return gw.Flows.Names(ctx, values[views.FieldFlowNamespace], values[views.FieldFlowKind])
		case views.LookupFlowKinds:
			return flows.Kinds
		}
		return nil
	}
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	ctx := toast.Deferred(r.Context())
	namespace, name := r.PathValue("namespace"), r.PathValue("name")

	flowTest := gw.FlowTests.Get(ctx, namespace, name)
	var flow *restypes.Flow
	if views.HasFlowReference(flowTest) {
		ref := flowTest.Spec.ReferenceFlow
		flow = gw.Flows.Get(ctx, ref.Namespace, ref.Kind, ref.Name)
	}
	s.render(w, r, http.StatusOK, "detail", "FlowTest "+name, views.NewDetailModel(namespace, name, flowTest, flow))
}

func (s *Server) handleLegacyDetail(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.gateways(w, r)
	if !ok {
		return
	}
	target := "/flowtests/" + url.PathEscape(gw.FlowTests.Namespace()) + "/" + url.PathEscape(r.PathValue("name"))
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}
