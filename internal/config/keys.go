package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
)

func (t keyType) String() string {
	switch t {
	case kInt:
		return "integer"
	case kBool:
		return "bool"
	case kDuration:
		return "duration"
	default:
		return "string"
	}
}

// parse converts raw text to the value apply expects. Durations stay
// strings; validate checks them once every source has been merged.
func (t keyType) parse(raw string) (any, error) {
	switch t {
	case kInt:
		i, err := strconv.Atoi(raw)
		return i, err
	case kBool:
		b, err := strconv.ParseBool(raw)
		return b, err
	default:
		return raw, nil
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  string // secrets-file account; non-empty keys never touch the config file
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "AURACARE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_enabled", typ: kBool, env: "AURACARE_SERVER_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.MCPEnabled },
	},
	{
		key: "generation.backend", typ: kString, env: "AURACARE_GENERATION_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Generation.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.Backend },
	},
	{
		key: "generation.timeout", typ: kDuration, env: "AURACARE_GENERATION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Generation.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.Timeout },
	},
	{
		key: "ollama.base_url", typ: kString, env: "AURACARE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "AURACARE_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "cloud.model", typ: kString, env: "AURACARE_CLOUD_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Cloud.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Cloud.Model },
	},
	{
		key: "cloud.base_url", typ: kString, env: "AURACARE_CLOUD_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Cloud.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Cloud.BaseURL },
	},
	{
		key: "cloud.api_key", typ: kString, env: "AURACARE_CLOUD_API_KEY", secret: secretCloudAPIKey,
		apply:   func(cfg *Config, v any) { cfg.Cloud.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Cloud.APIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "AURACARE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "AURACARE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "insights.timezone", typ: kString, env: "AURACARE_INSIGHTS_TIMEZONE",
		apply:   func(cfg *Config, v any) { cfg.Insights.Timezone = v.(string) },
		extract: func(cfg Config) any { return cfg.Insights.Timezone },
	},
	{
		key: "insights.history_limit", typ: kInt, env: "AURACARE_INSIGHTS_HISTORY_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Insights.HistoryLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Insights.HistoryLimit },
	},
	{
		key: "worker.poll_interval", typ: kDuration, env: "AURACARE_WORKER_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Worker.PollInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Worker.PollInterval },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// fromBackend reads s from b. Ints use the backend's native number type;
// everything else is stored as text.
func (s keySpec) fromBackend(b ConfigBackend) (any, bool, error) {
	if s.typ == kInt {
		i, ok, err := b.GetInt(s.key)
		return i, ok, err
	}
	raw, ok, err := b.GetString(s.key)
	if err != nil || !ok || raw == "" {
		return nil, false, err
	}
	v, err := s.typ.parse(raw)
	if err != nil {
		warnf("could not parse %s from config key %s=%q: %v. Using default value.", s.typ, s.key, raw, err)
		return nil, false, nil
	}
	return v, true, nil
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret != "" {
			continue
		}
		v, ok, err := s.fromBackend(b)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if ok {
			s.apply(cfg, v)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if s.env == "" || raw == "" {
			continue
		}
		v, err := s.typ.parse(raw)
		if err != nil {
			warnf("could not parse %s from env var %s=%q: %v. Using default value.", s.typ, s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
