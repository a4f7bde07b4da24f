package config

import (
	"fmt"
	"strings"
	"time"
)

// Generation backends.
const (
	BackendOllama = "ollama"
	BackendCloud  = "cloud"
)

type Config struct {
	Server     ServerConfig
	Generation GenerationConfig
	Ollama     OllamaConfig
	Cloud      CloudConfig
	Storage    StorageConfig
	Log        LogConfig
	Insights   InsightsConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Port       int
	MCPEnabled bool
}

type GenerationConfig struct {
	Backend string
	Timeout string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type CloudConfig struct {
	Model   string
	BaseURL string
	APIKey  string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type InsightsConfig struct {
	Timezone     string
	HistoryLimit int
}

type WorkerConfig struct {
	PollInterval string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5050,
		},
		Generation: GenerationConfig{
			Backend: BackendOllama,
			Timeout: "60s",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "phi3.5",
		},
		Cloud: CloudConfig{
			Model:   "google/gemini-2.5-flash",
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Insights: InsightsConfig{
			Timezone:     "Local",
			HistoryLimit: 60,
		},
		Worker: WorkerConfig{
			PollInterval: "500ms",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/auracare/config.json, then applies AURACARE_* environment
// overrides, then falls back to the secrets file for the cloud API key.
// The result is validated before it is returned.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()), NewSecretStore())
}

func loadWith(b ConfigBackend, secrets SecretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Cloud.APIKey == "" {
		if key, err := secrets.Get(secretCloudAPIKey); err == nil && key != "" {
			cfg.Cloud.APIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Generation.Backend {
	case BackendOllama:
	case BackendCloud:
		if c.Cloud.APIKey == "" {
			return fmt.Errorf("missing required config: cloud API key. " +
				"Set it via environment variable AURACARE_CLOUD_API_KEY " +
				"or run `auracare config set cloud.api_key <key>`")
		}
	default:
		return fmt.Errorf("invalid generation.backend %q (valid: %s, %s)", c.Generation.Backend, BackendOllama, BackendCloud)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	for key, v := range map[string]string{
		"generation.timeout":   c.Generation.Timeout,
		"worker.poll_interval": c.Worker.PollInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s %q: must be positive", key, v)
		}
	}
	if _, err := time.LoadLocation(c.Insights.Timezone); err != nil {
		return fmt.Errorf("invalid insights.timezone %q: %w", c.Insights.Timezone, err)
	}
	if c.Insights.HistoryLimit <= 0 {
		return fmt.Errorf("invalid insights.history_limit %d: must be positive", c.Insights.HistoryLimit)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (valid: debug, info, warn, error)", c.Log.Level)
	}
	return nil
}

// GenerationTimeout is the parsed generation.timeout. Load has validated it.
func (c Config) GenerationTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Generation.Timeout)
	return d
}

// PollInterval is the parsed worker.poll_interval.
func (c Config) PollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Worker.PollInterval)
	return d
}

// Location is the time zone insights are computed in. Falls back to
// time.Local if the configured zone cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Insights.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Model returns the model name for the selected generation backend.
func (c Config) Model() string {
	if c.Generation.Backend == BackendCloud {
		return c.Cloud.Model
	}
	return c.Ollama.Model
}
