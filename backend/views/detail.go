/*
 * backend/views/detail.go
 *
 * FlowTest detail view model.
 * - Pairs each Flow match/filter rule with its index-aligned status entry.
 * - Renders rules as YAML and groups them into passing and failing.
 */

package views

import (
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/luxury-yacht/flowtest-console/backend/internal/timeutil"
	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
)

// Outcome is the result of one rule.
type Outcome string

const (
	OutcomePassed  Outcome = "Passed"
	OutcomeFailed  Outcome = "Failed"
	OutcomeUnknown Outcome = "Unknown"
)

// Color is the display colour for the outcome.
func (o Outcome) Color() string {
	switch o {
	case OutcomePassed:
		return "green"
	case OutcomeFailed:
		return "red"
	default:
		return "grey"
	}
}

// RuleKind distinguishes match rules from filters.
type RuleKind string

const (
	RuleMatch  RuleKind = "match"
	RuleFilter RuleKind = "filter"
)

// Tooltip explains what an outcome means for a rule of this kind.
func (k RuleKind) Tooltip(o Outcome) string {
	switch {
	case k == RuleMatch && o == OutcomePassed:
		return "logs pass through to output"
	case k == RuleMatch && o == OutcomeFailed:
		return "logs are not selected by this match"
	case k == RuleFilter && o == OutcomePassed:
		return "logs pass this filter"
	case k == RuleFilter && o == OutcomeFailed:
		return "blocks logs from output"
	}
	return "no result reported for this rule yet"
}

// RuleView is one rendered rule.
type RuleView struct {
	Index   int
	Kind    RuleKind
	YAML    string
	Outcome Outcome
	Color   string
	Tooltip string
}

// RuleGroup is the rendered state of one rule list.
type RuleGroup struct {
	Kind    RuleKind
	Title   string
	Rules   []RuleView
	Passing []RuleView
	Failing []RuleView
	Unknown []RuleView
	// Extra counts status entries with no matching rule.
	Extra int
}

// BuildRuleGroup pairs rules with status by index. Rules past the end of status
// are Unknown; status entries past the end of rules are only counted.
func BuildRuleGroup(kind RuleKind, rules []any, status []bool) RuleGroup {
	group := RuleGroup{Kind: kind, Title: ruleTitle(kind)}
	for i, rule := range rules {
		outcome := OutcomeUnknown
		if i < len(status) {
			outcome = OutcomeFailed
			if status[i] {
				outcome = OutcomePassed
			}
		}
		view := RuleView{
			Index:   i,
			Kind:    kind,
			YAML:    RuleYAML(rule),
			Outcome: outcome,
			Color:   outcome.Color(),
			Tooltip: kind.Tooltip(outcome),
		}
		group.Rules = append(group.Rules, view)
		switch outcome {
		case OutcomePassed:
			group.Passing = append(group.Passing, view)
		case OutcomeFailed:
			group.Failing = append(group.Failing, view)
		default:
			group.Unknown = append(group.Unknown, view)
		}
	}
	if len(status) > len(rules) {
		group.Extra = len(status) - len(rules)
	}
	return group
}

func ruleTitle(kind RuleKind) string {
	if kind == RuleFilter {
		return "Tested filters"
	}
	return "Tested matches"
}

// RuleYAML renders an opaque rule as YAML text.
func RuleYAML(rule any) string {
	out, err := yaml.Marshal(rule)
	if err != nil {
		return fmt.Sprintf("%v", rule)
	}
	return strings.TrimRight(string(out), "\n")
}

// Field is a label and value shown in the metadata block.
type Field struct {
	Label string
	Value string
}

// DetailModel is everything the detail page renders. FlowTest is nil when the
// fetch failed; Flow is nil when it was not fetched or could not be loaded.
type DetailModel struct {
	Namespace string
	Name      string
	FlowTest  *restypes.FlowTest
	Flow      *restypes.Flow
	Fields    []Field
	Status    []Field
	Messages  []string
	Matches   RuleGroup
	Filters   RuleGroup
}

// NewDetailModel builds the detail view from whatever was loaded.
func NewDetailModel(namespace, name string, flowTest *restypes.FlowTest, flow *restypes.Flow) DetailModel {
	model := DetailModel{Namespace: namespace, Name: name, FlowTest: flowTest, Flow: flow}
	if flowTest == nil {
		return model
	}

	spec := flowTest.Spec
	model.Messages = spec.SentMessages
	model.Fields = []Field{
		{Label: "Name", Value: flowTest.Name},
		{Label: "Namespace", Value: flowTest.Namespace},
		{Label: "Status", Value: string(flowTest.Status.Status)},
		{Label: "Reference Pod", Value: reference(spec.ReferencePod)},
		{Label: "Reference Flow", Value: reference(spec.ReferenceFlow)},
		{Label: "Created At", Value: timeutil.FormatTimestamp(flowTest.CreationTimestamp.Time)},
		{Label: "Age", Value: timeutil.FormatAge(flowTest.CreationTimestamp.Time)},
	}

	status := flowTest.Status
	if status.SimulationPod != nil {
		model.Status = append(model.Status, Field{Label: "Simulation Pod", Value: reference(*status.SimulationPod)})
	}
	if status.SimulationFlow != nil {
		model.Status = append(model.Status, Field{Label: "Simulation Flow", Value: reference(*status.SimulationFlow)})
	}
	if status.OutputIndex != "" {
		model.Status = append(model.Status, Field{Label: "Output Index", Value: status.OutputIndex})
	}
	if status.LogView != "" {
		model.Status = append(model.Status, Field{Label: "Log View", Value: status.LogView})
	}

	var match, filters []any
	if flow != nil {
		match, filters = flow.Match, flow.Filters
	}
	model.Matches = BuildRuleGroup(RuleMatch, match, status.MatchStatus)
	model.Filters = BuildRuleGroup(RuleFilter, filters, status.FilterStatus)
	return model
}

func reference(ref restypes.ReferenceObject) string {
	if ref.IsZero() {
		return ""
	}
	parts := []string{}
	if ref.Kind != "" {
		parts = append(parts, ref.Kind)
	}
	name := ref.Name
	if ref.Namespace != "" {
		name = ref.Namespace + "/" + ref.Name
	}
	return strings.Join(append(parts, name), " ")
}

// HasFlowReference reports whether the FlowTest names a Flow to fetch.
func HasFlowReference(flowTest *restypes.FlowTest) bool {
	if flowTest == nil {
		return false
	}
	ref := flowTest.Spec.ReferenceFlow
	return ref.Kind != "" && ref.Name != ""
}
