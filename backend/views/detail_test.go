package views

import (
	"testing"

	"github.com/stretchr/testify/require"

	restypes "github.com/luxury-yacht/flowtest-console/backend/resources/types"
)

func TestBuildRuleGroupAligned(t *testing.T) {
	rules := []any{
		map[string]any{"select": map[string]any{"labels": map[string]any{"app": "nginx"}}},
		map[string]any{"exclude": map[string]any{"namespaces": []any{"kube-system"}}},
	}
	group := BuildRuleGroup(RuleMatch, rules, []bool{true, false})

	require.Len(t, group.Rules, 2)
	require.Equal(t, OutcomePassed, group.Rules[0].Outcome)
	require.Equal(t, "green", group.Rules[0].Color)
	require.Equal(t, "logs pass through to output", group.Rules[0].Tooltip)
	require.Equal(t, "select:\n  labels:\n    app: nginx", group.Rules[0].YAML)
	require.Equal(t, OutcomeFailed, group.Rules[1].Outcome)
	require.Equal(t, "red", group.Rules[1].Color)
	require.Len(t, group.Passing, 1)
	require.Len(t, group.Failing, 1)
	require.Empty(t, group.Unknown)
}

func TestBuildRuleGroupShortStatus(t *testing.T) {
	rules := []any{"a", "b", "c"}
	group := BuildRuleGroup(RuleFilter, rules, []bool{false})

	require.Len(t, group.Rules, 3)
	require.Equal(t, OutcomeFailed, group.Rules[0].Outcome)
	require.Equal(t, "blocks logs from output", group.Rules[0].Tooltip)
	require.Equal(t, OutcomeUnknown, group.Rules[1].Outcome)
	require.Equal(t, "grey", group.Rules[2].Color)
	require.Len(t, group.Unknown, 2)
	require.Zero(t, group.Extra)
}

func TestBuildRuleGroupLongStatus(t *testing.T) {
	group := BuildRuleGroup(RuleMatch, []any{"only"}, []bool{true, true, false})
	require.Len(t, group.Rules, 1)
	require.Equal(t, 2, group.Extra)

	empty := BuildRuleGroup(RuleMatch, nil, []bool{true})
	require.Empty(t, empty.Rules)
	require.Equal(t, 1, empty.Extra)
}

func TestNewDetailModelWithoutFlow(t *testing.T) {
	flowTest := &restypes.FlowTest{
		Spec: restypes.FlowTestSpec{
			ReferencePod:  restypes.ReferenceObject{Kind: "Pod", Name: "app", Namespace: "web"},
			ReferenceFlow: restypes.ReferenceObject{Kind: "Flow", Name: "f", Namespace: "web"},
			SentMessages:  []string{"hello"},
		},
		Status: restypes.FlowTestStatus{
			Status:      restypes.FlowStatusRunning,
			MatchStatus: []bool{true},
			LogView:     "http://kibana/app",
		},
	}
	flowTest.Name = "t"
	flowTest.Namespace = "default"

	model := NewDetailModel("default", "t", flowTest, nil)
	require.Equal(t, []string{"hello"}, model.Messages)
	require.Empty(t, model.Matches.Rules)
	require.Equal(t, 1, model.Matches.Extra)
	require.Contains(t, model.Fields, Field{Label: "Reference Pod", Value: "Pod web/app"})
	require.Equal(t, []Field{{Label: "Log View", Value: "http://kibana/app"}}, model.Status)
}

func TestNewDetailModelNilFlowTest(t *testing.T) {
	model := NewDetailModel("default", "missing", nil, nil)
	require.Nil(t, model.FlowTest)
	require.Empty(t, model.Fields)
	require.False(t, HasFlowReference(nil))
}

func TestHasFlowReference(t *testing.T) {
	ft := &restypes.FlowTest{}
	require.False(t, HasFlowReference(ft))
	ft.Spec.ReferenceFlow = restypes.ReferenceObject{Kind: "ClusterFlow", Name: "all"}
	require.True(t, HasFlowReference(ft))
}
