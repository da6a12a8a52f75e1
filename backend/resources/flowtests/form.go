package flowtests

import "strings"

// Form is the user input for a new FlowTest.
type Form struct {
	Name          string
	PodNamespace  string
	PodName       string
	FlowKind      string
	FlowNamespace string
	FlowName      string
	SentMessages  []string
}

// Document renders the form as a partial FlowTest JSON document.
// Blank values are left out so that required-field checks see them as missing.
func (f Form) Document() map[string]any {
	doc := map[string]any{}
	put := func(parent map[string]any, key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parent[key] = v
		}
	}

	metadata := map[string]any{}
	put(metadata, "name", f.Name)
	doc["metadata"] = metadata

	pod := map[string]any{}
	put(pod, "namespace", f.PodNamespace)
	put(pod, "name", f.PodName)

	flow := map[string]any{}
	put(flow, "kind", f.FlowKind)
	put(flow, "namespace", f.FlowNamespace)
	put(flow, "name", f.FlowName)

	spec := map[string]any{
		"referencePod":  pod,
		"referenceFlow": flow,
	}
	if len(f.SentMessages) > 0 {
		messages := make([]any, len(f.SentMessages))
		for i, m := range f.SentMessages {
			messages[i] = m
		}
		spec["sentMessages"] = messages
	}
	doc["spec"] = spec
	return doc
}
