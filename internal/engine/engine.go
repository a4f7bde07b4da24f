// Package engine hides the text generation backend behind one interface so
// the generative insight adapter works the same against a local Ollama
// server or an OpenAI-compatible cloud API.
package engine

import "context"

// Engine is a text generation backend.
type Engine interface {
	// Chat sends messages to model and returns the reply text. A non-nil
	// jsonSchema asks for structured JSON output. Implementations make
	// exactly one request per call.
	Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error)

	// IsRunning reports whether the backend is reachable.
	IsRunning(ctx context.Context) bool

	// Name identifies the backend in logs and status output.
	Name() string
}

// ModelManager is implemented by backends that host models locally and can
// download missing ones.
type ModelManager interface {
	HasModel(ctx context.Context, name string) bool
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is the JSON object shape a structured reply must follow. Name
// labels it for backends that require one.
type Schema struct {
	Name       string                    `json:"-"`
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty is one field of a Schema. A non-empty Enum restricts a
// string field to the listed values.
type SchemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Field is a named property of an object schema.
type Field struct {
	Name string
	Prop SchemaProperty
}

// ObjectSchema builds an object Schema whose fields are all required, in the
// order given.
func ObjectSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		Name:       name,
		Type:       "object",
		Properties: make(map[string]SchemaProperty, len(fields)),
		Required:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Name] = f.Prop
		s.Required = append(s.Required, f.Name)
	}
	return s
}

// StringField describes a string property, optionally limited to enum.
func StringField(name, description string, enum ...string) Field {
	return Field{Name: name, Prop: SchemaProperty{Type: "string", Description: description, Enum: enum}}
}

// PullProgress is one progress report from a model download.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
