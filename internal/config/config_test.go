package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	strs map[string]string
	ints map[string]int
}

func newMapBackend() *mapBackend {
	return &mapBackend{strs: map[string]string{}, ints: map[string]int{}}
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strs[key]
	return v, ok, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *mapBackend) SetString(key, val string) error { m.strs[key] = val; return nil }
func (m *mapBackend) SetInt(key string, val int) error { m.ints[key] = val; return nil }

func (m *mapBackend) Delete(key string) error {
	delete(m.strs, key)
	delete(m.ints, key)
	return nil
}

// mockSecrets is an in-memory SecretStore.
type mockSecrets map[string]string

func (m mockSecrets) Get(account string) (string, error) {
	v, ok := m[account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (m mockSecrets) Set(account, value string) error {
	m[account] = value
	return nil
}

// clearEnv blanks every AURACARE_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
	t.Setenv("AURACARE_API_TOKEN", "")
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(), mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5050 {
		t.Errorf("Server.Port = %d, want 5050", cfg.Server.Port)
	}
	if cfg.Server.MCPEnabled {
		t.Error("Server.MCPEnabled = true, want false")
	}
	if cfg.Generation.Backend != BackendOllama {
		t.Errorf("Generation.Backend = %q, want ollama", cfg.Generation.Backend)
	}
	if cfg.GenerationTimeout() != 60*time.Second {
		t.Errorf("GenerationTimeout() = %v, want 60s", cfg.GenerationTimeout())
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Model() != "phi3.5" {
		t.Errorf("Model() = %q, want phi3.5", cfg.Model())
	}
	if cfg.Cloud.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Cloud.BaseURL = %q", cfg.Cloud.BaseURL)
	}
	if cfg.Insights.HistoryLimit != 60 {
		t.Errorf("Insights.HistoryLimit = %d, want 60", cfg.Insights.HistoryLimit)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 500ms", cfg.PollInterval())
	}
	if cfg.Location() != time.Local {
		t.Errorf("Location() = %v, want Local", cfg.Location())
	}
	if !strings.HasSuffix(cfg.Storage.DataDir, "auracare") {
		t.Errorf("Storage.DataDir = %q, want .../auracare", cfg.Storage.DataDir)
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMapBackend()
	b.ints["server.port"] = 6060
	b.strs["server.mcp_enabled"] = "true"
	b.strs["ollama.model"] = "llama3.2"
	b.strs["insights.timezone"] = "Europe/Berlin"
	b.ints["insights.history_limit"] = 30

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060", cfg.Server.Port)
	}
	if !cfg.Server.MCPEnabled {
		t.Error("Server.MCPEnabled = false, want true")
	}
	if cfg.Model() != "llama3.2" {
		t.Errorf("Model() = %q, want llama3.2", cfg.Model())
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %v", cfg.Location())
	}
	if cfg.Insights.HistoryLimit != 30 {
		t.Errorf("HistoryLimit = %d, want 30", cfg.Insights.HistoryLimit)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := newMapBackend()
	b.ints["server.port"] = 6060
	t.Setenv("AURACARE_SERVER_PORT", "7070")
	t.Setenv("AURACARE_GENERATION_BACKEND", "cloud")
	t.Setenv("AURACARE_CLOUD_API_KEY", "env-key")
	t.Setenv("AURACARE_CLOUD_MODEL", "openai/gpt-4o-mini")

	cfg, err := loadWith(b, mockSecrets{secretCloudAPIKey: "file-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Cloud.APIKey != "env-key" {
		t.Errorf("Cloud.APIKey = %q, want env-key", cfg.Cloud.APIKey)
	}
	if cfg.Model() != "openai/gpt-4o-mini" {
		t.Errorf("Model() = %q", cfg.Model())
	}
}

func TestEnvOverride_BadIntKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURACARE_SERVER_PORT", "not-a-port")

	cfg, err := loadWith(newMapBackend(), mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("Server.Port = %d, want default 5050", cfg.Server.Port)
	}
}

func TestCloudKeyFromSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURACARE_GENERATION_BACKEND", "cloud")

	cfg, err := loadWith(newMapBackend(), mockSecrets{secretCloudAPIKey: "stored-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cloud.APIKey != "stored-key" {
		t.Errorf("Cloud.APIKey = %q, want stored-key", cfg.Cloud.APIKey)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"cloud without key", map[string]string{"AURACARE_GENERATION_BACKEND": "cloud"}, "missing required config"},
		{"unknown backend", map[string]string{"AURACARE_GENERATION_BACKEND": "mlx"}, "generation.backend"},
		{"bad timeout", map[string]string{"AURACARE_GENERATION_TIMEOUT": "soon"}, "generation.timeout"},
		{"negative poll", map[string]string{"AURACARE_WORKER_POLL_INTERVAL": "-1s"}, "worker.poll_interval"},
		{"bad timezone", map[string]string{"AURACARE_INSIGHTS_TIMEZONE": "Mars/Olympus"}, "insights.timezone"},
		{"zero history", map[string]string{"AURACARE_INSIGHTS_HISTORY_LIMIT": "0"}, "insights.history_limit"},
		{"bad log level", map[string]string{"AURACARE_LOG_LEVEL": "loud"}, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadWith(newMapBackend(), mockSecrets{})
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestGetAPIToken_GeneratesOnce(t *testing.T) {
	clearEnv(t)
	secrets := mockSecrets{}

	first, err := GetAPIToken(secrets)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}
	second, err := GetAPIToken(secrets)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if first != second {
		t.Error("token changed between calls")
	}
}

func TestGetAPIToken_EnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURACARE_API_TOKEN", "from-env")

	tok, err := GetAPIToken(mockSecrets{secretAPIToken: "stored"})
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if tok != "from-env" {
		t.Errorf("token = %q, want from-env", tok)
	}
}

func TestFileSecrets_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auracare", "secrets.json")
	s := &fileSecrets{path: path}

	if _, err := s.Get(secretAPIToken); err != ErrSecretNotFound {
		t.Fatalf("Get on missing file err = %v, want ErrSecretNotFound", err)
	}
	if err := s.Set(secretAPIToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(secretAPIToken)
	if err != nil || got != "abc" {
		t.Errorf("Get = %q, %v; want abc", got, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", info.Mode().Perm())
	}
}

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := newFileBackend(path)
	if err := b.SetInt("server.port", 8080); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("ollama.model", "llama3.2"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reloaded := newFileBackend(path)
	port, ok, err := reloaded.GetInt("server.port")
	if err != nil || !ok || port != 8080 {
		t.Errorf("GetInt = %d, %v, %v; want 8080", port, ok, err)
	}
	model, ok, _ := reloaded.GetString("ollama.model")
	if !ok || model != "llama3.2" {
		t.Errorf("GetString = %q, %v", model, ok)
	}
}

func TestFileBackend_NonIntegerRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server.port": 80.5}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := newFileBackend(path).GetInt("server.port"); err == nil {
		t.Error("expected error for fractional port")
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend()
	secrets := mockSecrets{}

	if err := setKeyWith(b, secrets, "server.port", "6000"); err != nil {
		t.Fatalf("setKeyWith(server.port): %v", err)
	}
	if b.ints["server.port"] != 6000 {
		t.Errorf("server.port = %d, want 6000", b.ints["server.port"])
	}
	if err := setKeyWith(b, secrets, "server.mcp_enabled", "yes"); err == nil {
		t.Error("expected error for non-bool value")
	}
	if err := setKeyWith(b, secrets, "generation.timeout", "ten"); err == nil {
		t.Error("expected error for bad duration")
	}
	if err := setKeyWith(b, secrets, "cloud.api_key", "sk-test"); err != nil {
		t.Fatalf("setKeyWith(cloud.api_key): %v", err)
	}
	if secrets[secretCloudAPIKey] != "sk-test" {
		t.Error("cloud.api_key not written to the secret store")
	}
	if _, ok := b.strs["cloud.api_key"]; ok {
		t.Error("secret leaked into the config backend")
	}
	if err := setKeyWith(b, secrets, "nope.key", "x"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("unknown key err = %v", err)
	}
}

func TestShowAll_MasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Cloud.APIKey = "sk-secret"

	for _, k := range ShowAll(cfg) {
		if strings.Contains(k.Value, "sk-secret") {
			t.Errorf("%s shows the secret value", k.Key)
		}
		if k.Key == "cloud.api_key" && k.Value != "(set)" {
			t.Errorf("cloud.api_key = %q, want (set)", k.Value)
		}
	}
	if len(ValidKeys()) != len(specs) {
		t.Errorf("ValidKeys() has %d keys, want %d", len(ValidKeys()), len(specs))
	}
}
