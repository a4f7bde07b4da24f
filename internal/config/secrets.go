package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	secretService     = "auracare"
	secretCloudAPIKey = "cloud_api_key"
	secretAPIToken    = "api_token"
)

// ErrSecretNotFound is returned when a secret has not been stored.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore holds credentials outside the config file.
type SecretStore interface {
	Get(account string) (string, error)
	Set(account, value string) error
}

// NewSecretStore returns the secrets file store at
// $XDG_DATA_HOME/auracare/secrets.json.
func NewSecretStore() SecretStore {
	return &fileSecrets{path: secretsFilePath()}
}

func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "auracare", "secrets.json")
}

// fileSecrets stores {service: {account: value}} with 0600 permissions.
type fileSecrets struct {
	mu   sync.Mutex
	path string
}

func (f *fileSecrets) read() (map[string]map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	if secrets == nil {
		secrets = map[string]map[string]string{}
	}
	return secrets, nil
}

func (f *fileSecrets) Get(account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.read()
	if err != nil {
		return "", err
	}
	val, ok := secrets[secretService][account]
	if !ok || val == "" {
		return "", ErrSecretNotFound
	}
	return val, nil
}

func (f *fileSecrets) Set(account, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.read()
	if err != nil {
		return err
	}
	if secrets[secretService] == nil {
		secrets[secretService] = make(map[string]string)
	}
	secrets[secretService][account] = value

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}

// GetAPIToken returns the bearer token protecting the local API.
// AURACARE_API_TOKEN wins; otherwise the stored token is used, and one is
// generated and stored on first use.
func GetAPIToken(s SecretStore) (string, error) {
	if tok := os.Getenv("AURACARE_API_TOKEN"); tok != "" {
		return tok, nil
	}

	tok, err := s.Get(secretAPIToken)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	tok = hex.EncodeToString(buf)
	if err := s.Set(secretAPIToken, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
