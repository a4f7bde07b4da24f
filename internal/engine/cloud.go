package engine

import (
	"context"
	"time"

	"github.com/auracare/auracare/internal/proxy"
)

// CloudEngine sends chat requests to an OpenAI-compatible API such as
// OpenRouter. Structured requests use a strict json_schema response format.
type CloudEngine struct {
	client *proxy.Client
}

// NewCloudEngine creates a CloudEngine. An empty baseURL selects OpenRouter.
func NewCloudEngine(apiKey, baseURL string, timeout time.Duration) *CloudEngine {
	return &CloudEngine{
		client: proxy.NewClient(apiKey, proxy.WithBaseURL(baseURL), proxy.WithTimeout(timeout)),
	}
}

func (e *CloudEngine) Name() string { return "cloud" }

func (e *CloudEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	req := proxy.ChatRequest{
		Model:    model,
		Messages: make([]proxy.Message, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = proxy.Message{Role: m.Role, Content: m.Content}
	}
	if jsonSchema != nil {
		name := jsonSchema.Name
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = proxy.SchemaFormat(name, strictSchema(jsonSchema))
	}
	return e.client.Complete(ctx, req)
}

// IsRunning reports whether the API answers a model listing.
func (e *CloudEngine) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.client.ListModels(ctx)
	return err == nil
}

// strictSchema renders s in the form strict structured outputs accept:
// every property required and no additional properties.
func strictSchema(s *Schema) map[string]any {
	props := make(map[string]any, len(s.Properties))
	for k, v := range s.Properties {
		p := map[string]any{"type": v.Type}
		if v.Description != "" {
			p["description"] = v.Description
		}
		if len(v.Enum) > 0 {
			p["enum"] = v.Enum
		}
		props[k] = p
	}
	return map[string]any{
		"type":                 s.Type,
		"properties":           props,
		"required":             s.Required,
		"additionalProperties": false,
	}
}
