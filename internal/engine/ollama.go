package engine

import (
	"context"
	"time"

	"github.com/auracare/auracare/internal/ollama"
)

const (
	// Insight wording should vary a little between calls but stay on topic.
	ollamaTemperature = 0.4

	// Keep the model resident between check-ins so insights stay quick.
	ollamaKeepAlive = 15 * time.Minute
)

// OllamaEngine generates insights with a local Ollama server. It also
// implements ModelManager so startup can pull a missing model.
type OllamaEngine struct {
	client *ollama.Client
}

// NewOllamaEngine targets the Ollama server at baseURL. timeout bounds each
// chat; pulls are bounded only by their context.
func NewOllamaEngine(baseURL string, timeout time.Duration) *OllamaEngine {
	return &OllamaEngine{client: ollama.New(baseURL, timeout,
		ollama.WithTemperature(ollamaTemperature),
		ollama.WithKeepAlive(ollamaKeepAlive),
	)}
}

func (e *OllamaEngine) Name() string { return BackendOllama }

func (e *OllamaEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message(m)
	}
	return e.client.Chat(ctx, model, msgs, toOllamaSchema(jsonSchema))
}

// toOllamaSchema drops the schema name, which Ollama's format has no slot for.
func toOllamaSchema(s *Schema) *ollama.Schema {
	if s == nil {
		return nil
	}
	out := &ollama.Schema{Type: s.Type, Required: s.Required}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]ollama.SchemaProperty, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = ollama.SchemaProperty(p)
		}
	}
	return out
}

func (e *OllamaEngine) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}

func (e *OllamaEngine) HasModel(ctx context.Context, name string) bool {
	return e.client.HasModel(ctx, name)
}

func (e *OllamaEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	if onProgress == nil {
		return e.client.PullModel(ctx, name, nil)
	}
	return e.client.PullModel(ctx, name, func(p ollama.PullProgress) {
		onProgress(PullProgress(p))
	})
}
