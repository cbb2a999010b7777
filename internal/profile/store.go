package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// ErrProfileNotFound is returned when no stored profile has the given name
var ErrProfileNotFound = errors.New("profile not found")

// Entry is one stored profile plus its usage bookkeeping. Secrets never reach
// the YAML file.
type Entry struct {
	ID                       string `yaml:"id"`
	models.ConnectionProfile `yaml:",inline"`
	CreatedAt                time.Time `yaml:"created_at"`
	LastUsed                 time.Time `yaml:"last_used,omitempty"`
	UsageCount               int       `yaml:"usage_count"`
}

// Store persists profiles to profiles.yaml with their secrets in the keyring
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	secrets *PasswordStore
}

// NewStore loads the profile file from configDir if it exists. secrets may be
// nil, in which case credentials only live for the current process.
func NewStore(configDir string, secrets *PasswordStore) (*Store, error) {
	if secrets == nil {
		secrets = NewPasswordStoreWithRing(keyring.NewArrayKeyring(nil))
	}

	s := &Store{
		path:    filepath.Join(configDir, "profiles.yaml"),
		entries: []Entry{},
		secrets: secrets,
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("failed to parse profiles file: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file names hosts and v3 user names
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles file: %w", err)
	}
	return nil
}

// Path returns the location of the profiles file
func (s *Store) Path() string {
	return s.path
}

// Names returns profile names in creation order
func (s *Store) Names(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names, nil
}

// Create decodes a JSON profile and appends it. A name that already exists is
// a validation error.
func (s *Store) Create(_ context.Context, data []byte) error {
	p, err := models.DecodeConnectionProfile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.Name) >= 0 {
		return models.NewValidationError("name", "name already used")
	}

	s.storeSecrets(p)

	now := time.Now()
	s.entries = append(s.entries, Entry{
		ID:                uuid.New().String(),
		ConnectionProfile: stripSecrets(p),
		CreatedAt:         now,
	})
	return s.save()
}

// Profile returns the named profile with its secrets restored
func (s *Store) Profile(_ context.Context, name string) (models.ConnectionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return models.ConnectionProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	p := s.entries[i].ConnectionProfile
	s.restoreSecrets(&p)
	return p, nil
}

// Touch records a use of the named profile
func (s *Store) Touch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.entries[i].LastUsed = time.Now()
	s.entries[i].UsageCount++
	return s.save()
}

// Delete removes the named profile and its secrets
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for _, kind := range []string{SecretCommunity, SecretAuthPassphrase, SecretPrivPassphrase} {
		_ = s.secrets.Delete(name, kind)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.save()
}

// Entries returns a copy of all entries
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// GetRecent returns the most recently used profiles first
func (s *Store) GetRecent(limit int) []Entry {
	sorted := s.Entries()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastUsed.After(sorted[j].LastUsed)
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

func (s *Store) indexOf(name string) int {
	for i, e := range s.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) storeSecrets(p models.ConnectionProfile) {
	for kind, secret := range secretsOf(p) {
		if err := s.secrets.Save(p.Name, kind, secret); err != nil {
			// The profile is still usable; the user re-enters the secret
			slog.Warn("failed to save secret to keyring", "profile", p.Name, "kind", kind, "err", err)
		}
	}
}

func (s *Store) restoreSecrets(p *models.ConnectionProfile) {
	get := func(kind string) string {
		v, err := s.secrets.Get(p.Name, kind)
		if err != nil && !errors.Is(err, ErrSecretNotFound) {
			slog.Warn("failed to read secret from keyring", "profile", p.Name, "kind", kind, "err", err)
		}
		return v
	}
	if p.Version == models.Version3 {
		p.SecurityParameters.AuthenticationPassphrase = get(SecretAuthPassphrase)
		p.SecurityParameters.PrivacyPassphrase = get(SecretPrivPassphrase)
	} else {
		p.Community = get(SecretCommunity)
	}
}

func secretsOf(p models.ConnectionProfile) map[string]string {
	return map[string]string{
		SecretCommunity:      p.Community,
		SecretAuthPassphrase: p.SecurityParameters.AuthenticationPassphrase,
		SecretPrivPassphrase: p.SecurityParameters.PrivacyPassphrase,
	}
}

func stripSecrets(p models.ConnectionProfile) models.ConnectionProfile {
	p.Community = ""
	p.SecurityParameters.AuthenticationPassphrase = ""
	p.SecurityParameters.PrivacyPassphrase = ""
	return p
}
