package engine

import (
	"errors"
	"fmt"
	"time"
)

// Backend names accepted by Detect.
const (
	BackendOllama = "ollama"
	BackendCloud  = "cloud"
)

// DetectConfig holds parameters for backend selection.
type DetectConfig struct {
	Backend       string
	Timeout       time.Duration
	OllamaBaseURL string
	CloudBaseURL  string
	CloudAPIKey   string
}

// Detect returns the Engine for the configured backend. An empty backend
// selects Ollama.
func Detect(cfg DetectConfig) (Engine, error) {
	switch cfg.Backend {
	case BackendOllama, "":
		return NewOllamaEngine(cfg.OllamaBaseURL, cfg.Timeout), nil
	case BackendCloud:
		if cfg.CloudAPIKey == "" {
			return nil, errors.New("cloud backend requires an API key")
		}
		return NewCloudEngine(cfg.CloudAPIKey, cfg.CloudBaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}
}
