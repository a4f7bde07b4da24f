package profile

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ProfileStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type ProfileStore interface {
	SetProfileKey(key, value string) error
	DeleteProfileKey(key string) error
	GetAllProfileKeys() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached access to the user profile stored in SQLite.
type Manager struct {
	store    ProfileStore
	clock    Clock
	ttl      time.Duration
	validate *validator.Validate

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store ProfileStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store ProfileStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:    store,
		clock:    clock,
		ttl:      ttl,
		validate: validator.New(),
	}
}

// GetProfile returns the stored profile, from cache while it is fresh.
// DisplayName is never empty.
func (m *Manager) GetProfile() (Profile, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		p := *m.cached
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return *m.cached, nil
	}

	keys, err := m.store.GetAllProfileKeys()
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile keys: %w", err)
	}

	p := buildProfile(keys)
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return p, nil
}

// DisplayName returns the user's name, or DefaultDisplayName when it is unset
// or the profile cannot be read.
func (m *Manager) DisplayName() string {
	p, err := m.GetProfile()
	if err != nil {
		return DefaultDisplayName
	}
	return p.DisplayName
}

// ValidateField checks key and value without writing anything. It returns
// the trimmed value.
func (m *Manager) ValidateField(key, value string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", fmt.Errorf("unknown profile key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	value = strings.TrimSpace(value)
	if value != "" {
		if err := m.validate.Var(value, fieldRules[key]); err != nil {
			return "", fmt.Errorf("invalid %s %q", key, value)
		}
	}
	return value, nil
}

// SetFields validates every field first and writes only if all pass, in
// key order. An empty value clears the key. The cache is invalidated.
func (m *Manager) SetFields(fields map[string]string) error {
	clean := make(map[string]string, len(fields))
	for key, value := range fields {
		v, err := m.ValidateField(key, value)
		if err != nil {
			return err
		}
		clean[key] = v
	}
	keys := slices.Sorted(maps.Keys(clean))

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.cached = nil }()

	for _, key := range keys {
		var err error
		if clean[key] == "" {
			err = m.store.DeleteProfileKey(key)
		} else {
			err = m.store.SetProfileKey(key, clean[key])
		}
		if err != nil {
			return fmt.Errorf("setting profile key %q: %w", key, err)
		}
	}
	return nil
}

var fieldRules = map[string]string{
	KeyDisplayName: "max=80",
	KeyPhoneNumber: "max=32,printascii",
	KeyEmail:       "email",
}

func buildProfile(keys map[string]string) Profile {
	p := Profile{
		DisplayName: keys[KeyDisplayName],
		PhoneNumber: keys[KeyPhoneNumber],
		Email:       keys[KeyEmail],
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		p.DisplayName = DefaultDisplayName
	}
	return p
}
