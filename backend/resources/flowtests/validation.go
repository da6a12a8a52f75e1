package flowtests

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/luxury-yacht/flowtest-console/backend/internal/keylookup"
)

const schemaURL = "https://flowtest-console.local/schemas/flowtest-form.json"

const schemaDocument = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["metadata", "spec"],
  "properties": {
    "metadata": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1}
      }
    },
    "spec": {
      "type": "object",
      "required": ["referencePod", "referenceFlow", "sentMessages"],
      "properties": {
        "referencePod": {
          "type": "object",
          "required": ["namespace", "name"],
          "properties": {
            "namespace": {"type": "string", "minLength": 1},
            "name": {"type": "string", "minLength": 1}
          }
        },
        "referenceFlow": {
          "type": "object",
          "required": ["namespace", "name"],
          "properties": {
            "kind": {"enum": ["Flow", "ClusterFlow"]},
            "namespace": {"type": "string", "minLength": 1},
            "name": {"type": "string", "minLength": 1}
          }
        },
        "sentMessages": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string"}
        }
      }
    }
  }
}`

// fieldMessages holds the user-facing message per instance path.
var fieldMessages = map[string]string{
	"metadata/name":                "FlowTest Name is required",
	"spec/referencePod/namespace":  "Pod namespace is required",
	"spec/referencePod/name":       "Pod name is required",
	"spec/referenceFlow/namespace": "Flow namespace is required",
	"spec/referenceFlow/name":      "Flow name is required",
	"spec/sentMessages":            "FlowTest must have at least one message",
}

// formOrder lists the error paths in the order the create form shows its fields.
var formOrder = [][]string{
	{"metadata", "name"},
	{"spec", "referencePod", "namespace"},
	{"spec", "referencePod", "name"},
	{"spec", "referenceFlow", "kind"},
	{"spec", "referenceFlow", "namespace"},
	{"spec", "referenceFlow", "name"},
	{"spec", "sentMessages"},
}

var printer = message.NewPrinter(language.English)

// Validator checks FlowTest form documents against the creation schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the creation schema.
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaDocument))
	if err != nil {
		return nil, fmt.Errorf("parse flowtest schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("load flowtest schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile flowtest schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator is NewValidator for package initialisation; the schema is a constant.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns nil for a valid document, otherwise a nested error object that
// mirrors the document paths, e.g. {"spec":{"referencePod":{"namespace":{"message":"..."}}}}.
func (v *Validator) Validate(doc map[string]any) map[string]any {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return map[string]any{"message": err.Error()}
	}

	result := map[string]any{}
	for _, leaf := range leaves(verr) {
		for _, path := range leafPaths(leaf) {
			msg, ok := fieldMessages[strings.Join(path, "/")]
			if !ok {
				msg = leaf.ErrorKind.LocalizedString(printer)
			}
			setMessage(result, path, msg)
		}
	}
	return result
}

// FirstMessage returns the message of the first invalid field in form order.
// Errors outside the form fields fall back to a depth-first search of errs.
func FirstMessage(errs map[string]any) string {
	for _, path := range formOrder {
		node := any(errs)
		for _, segment := range path {
			parent, ok := node.(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = parent[segment]
		}
		if node == nil {
			continue
		}
		if msg, ok := keylookup.FindString(node, "message"); ok {
			return msg
		}
	}
	msg, _ := keylookup.FindString(errs, "message")
	return msg
}

func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

// leafPaths returns the instance paths a leaf error is about. A required-property
// error is reported against each missing property rather than its parent.
func leafPaths(leaf *jsonschema.ValidationError) [][]string {
	if required, ok := leaf.ErrorKind.(*kind.Required); ok {
		paths := make([][]string, 0, len(required.Missing))
		for _, missing := range required.Missing {
			path := append(append([]string{}, leaf.InstanceLocation...), missing)
			paths = append(paths, path)
		}
		return paths
	}
	return [][]string{append([]string{}, leaf.InstanceLocation...)}
}

func setMessage(root map[string]any, path []string, msg string) {
	node := root
	for _, segment := range path {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[segment] = child
		}
		node = child
	}
	if _, exists := node["message"]; !exists {
		node["message"] = msg
	}
}
