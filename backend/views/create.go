/*
 * backend/views/create.go
 *
 * FlowTest create view model.
 * - Cascading lookup dependency table.
 * - Form parsing, log seeding and the submission state machine.
 */

package views

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
	"github.com/luxury-yacht/flowtest-console/backend/resources/flowtests"
	"github.com/luxury-yacht/flowtest-console/backend/resources/pods"
)

// Form field names shared by the page, the script and the lookup endpoints.
const (
	FieldName          = "name"
	FieldPodNamespace  = "podNamespace"
	FieldPodName       = "podName"
	FieldFlowKind      = "flowKind"
	FieldFlowNamespace = "flowNamespace"
	FieldFlowName      = "flowName"
	FieldMessages      = "sentMessages"
	FieldLineCount     = "lineCount"
	FieldLogsFrom      = "logsFrom"
	FieldAction        = "action"
)

// Form actions.
const (
	ActionCreate   = "create"
	ActionRefresh  = "refresh"
	ActionLoadLogs = "load-logs"
	ActionReset    = "reset"
)

// Lookup names the endpoint that supplies a field's options.
type Lookup string

const (
	LookupNamespaces Lookup = "namespaces"
	LookupPods       Lookup = "pods"
	LookupFlows      Lookup = "flows"
	LookupFlowKinds  Lookup = "flow-kinds"
)

// Dependency describes one cascading field: it is enabled and populated only
// once every field in Requires has a value.
type Dependency struct {
	Field    string
	Requires []string
	Lookup   Lookup
}

// Dependencies is evaluated on every render and lookup.
var Dependencies = []Dependency{
	{Field: FieldPodNamespace, Lookup: LookupNamespaces},
	{Field: FieldPodName, Requires: []string{FieldPodNamespace}, Lookup: LookupPods},
	{Field: FieldFlowKind, Lookup: LookupFlowKinds},
	{Field: FieldFlowNamespace, Requires: []string{FieldFlowKind}, Lookup: LookupNamespaces},
	{Field: FieldFlowName, Requires: []string{FieldFlowKind, FieldFlowNamespace}, Lookup: LookupFlows},
}

// DependencyFor returns the dependency entry of field.
func DependencyFor(field string) (Dependency, bool) {
	for _, d := range Dependencies {
		if d.Field == field {
			return d, true
		}
	}
	return Dependency{}, false
}

// Enabled reports whether all upstream fields of d are set in values.
func (d Dependency) Enabled(values map[string]string) bool {
	for _, upstream := range d.Requires {
		if strings.TrimSpace(values[upstream]) == "" {
			return false
		}
	}
	return true
}

// CreateState is the create view state machine.
type CreateState string

const (
	StateEditing    CreateState = "Editing"
	StateSubmitting CreateState = "Submitting"
	StateSucceeded  CreateState = "Succeeded"
	StateFailed     CreateState = "Failed"
)

// Next returns the state after a submission outcome. Only Submitting moves;
// Failed returns to Editing on the following render.
func (s CreateState) Next(submitted bool) CreateState {
	switch s {
	case StateSubmitting:
		if submitted {
			return StateSucceeded
		}
		return StateFailed
	case StateFailed:
		return StateEditing
	}
	return s
}

// CreateInput is one posted create form.
type CreateInput struct {
	Action       string
	Values       map[string]string
	MessagesText string
	LineCount    int
	LogsFrom     string
}

// ParseCreateInput reads the posted form. Missing or invalid line counts fall back to defaultLines.
func ParseCreateInput(form url.Values, defaultLines int) CreateInput {
	in := CreateInput{
		Action:       form.Get(FieldAction),
		Values:       map[string]string{},
		MessagesText: form.Get(FieldMessages),
		LineCount:    tailLines(defaultLines),
		LogsFrom:     form.Get(FieldLogsFrom),
	}
	if in.Action == "" {
		in.Action = ActionRefresh
	}
	for _, field := range []string{FieldName, FieldPodNamespace, FieldPodName, FieldFlowKind, FieldFlowNamespace, FieldFlowName} {
		in.Values[field] = strings.TrimSpace(form.Get(field))
	}
	if raw := strings.TrimSpace(form.Get(FieldLineCount)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			in.LineCount = min(n, config.MaxLogTailLines)
		}
	}
	return in
}

// Messages splits the text area into the message list.
func (in CreateInput) Messages() []string {
	return pods.SplitLines(in.MessagesText)
}

// Form converts the input into the gateway form.
func (in CreateInput) Form() flowtests.Form {
	return flowtests.Form{
		Name:          in.Values[FieldName],
		PodNamespace:  in.Values[FieldPodNamespace],
		PodName:       in.Values[FieldPodName],
		FlowKind:      in.Values[FieldFlowKind],
		FlowNamespace: in.Values[FieldFlowNamespace],
		FlowName:      in.Values[FieldFlowName],
		SentMessages:  in.Messages(),
	}
}

// LogSource is the pod the log helper reads from, "namespace/pod".
func (in CreateInput) LogSource() string {
	ns, pod := in.Values[FieldPodNamespace], in.Values[FieldPodName]
	if ns == "" || pod == "" {
		return ""
	}
	return ns + "/" + pod
}

// ShouldSeedLogs reports whether the log helper fetches now: once per pod
// selection, or whenever forced. It needs pod, namespace and a line count.
func (in CreateInput) ShouldSeedLogs() bool {
	source := in.LogSource()
	if source == "" || in.LineCount <= 0 {
		return false
	}
	return in.Action == ActionLoadLogs || in.LogsFrom != source
}

// Seed replaces the message text with fetched log lines and records the source.
func (in *CreateInput) Seed(lines []string) {
	in.MessagesText = strings.Join(lines, "\n")
	in.LogsFrom = in.LogSource()
}

// FieldView is one cascading field as rendered.
type FieldView struct {
	Name    string
	Value   string
	Enabled bool
	Lookup  Lookup
	Options []string
	// Requires is the comma separated upstream fields, for the page script.
	Requires string
}

// CreateModel is everything the create page renders.
type CreateModel struct {
	State         CreateState
	Input         CreateInput
	Fields        map[string]FieldView
	RedirectTo    string
	RedirectAfter int
}

// OptionSource resolves lookup options for an enabled field.
type OptionSource func(d Dependency, values map[string]string) []string

// NewCreateModel evaluates the dependency table against the input.
// Disabled fields get no options and cause no lookups.
func NewCreateModel(state CreateState, in CreateInput, options OptionSource) CreateModel {
	model := CreateModel{State: state, Input: in, Fields: map[string]FieldView{}}
	for _, d := range Dependencies {
		view := FieldView{
			Name:     d.Field,
			Value:    in.Values[d.Field],
			Enabled:  d.Enabled(in.Values),
			Lookup:   d.Lookup,
			Requires: strings.Join(d.Requires, ","),
		}
		if view.Enabled && options != nil {
			view.Options = options(d, in.Values)
		}
		model.Fields[d.Field] = view
	}
	if state == StateSucceeded {
		model.RedirectTo = "/flowtests"
		model.RedirectAfter = int(config.CreateRedirectDelay.Seconds())
	}
	return model
}

// EmptyCreateInput is the input of a fresh form.
func EmptyCreateInput(defaultLines int) CreateInput {
	return CreateInput{Action: ActionRefresh, Values: map[string]string{}, LineCount: tailLines(defaultLines)}
}

// tailLines clamps a configured line count; zero selects the built-in default.
func tailLines(n int) int {
	if n <= 0 {
		return config.DefaultLogTailLines
	}
	return min(n, config.MaxLogTailLines)
}
