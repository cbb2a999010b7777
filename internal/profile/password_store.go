package profile

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const serviceName = "lazysnmp"

// Secret kinds kept in the keyring, one item per profile and kind
const (
	SecretCommunity      = "community"
	SecretAuthPassphrase = "auth"
	SecretPrivPassphrase = "priv"
)

// ErrSecretNotFound is returned when the keyring has no item for a key
var ErrSecretNotFound = errors.New("secret not found in keyring")

// SecretSaveError wraps a keyring write failure
type SecretSaveError struct {
	Err     error
	Message string
}

func (e *SecretSaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *SecretSaveError) Unwrap() error {
	return e.Err
}

// SecretReadError wraps a keyring read failure other than a missing key
type SecretReadError struct {
	Err error
}

func (e *SecretReadError) Error() string {
	return fmt.Sprintf("failed to read secret from keyring: %v", e.Err)
}

func (e *SecretReadError) Unwrap() error {
	return e.Err
}

// PasswordStore keeps community strings and v3 passphrases in the OS keyring
// with an encrypted file fallback
type PasswordStore struct {
	ring          keyring.Keyring
	usingFallback bool
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	backends := getBackendsForPlatform()

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &PasswordStore{
		ring:          ring,
		usingFallback: isUsingFallback(backends),
	}, nil
}

// NewPasswordStoreWithRing wraps an already opened keyring
func NewPasswordStoreWithRing(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

func getBackendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

func isUsingFallback(requested []keyring.BackendType) bool {
	if len(requested) == 1 && requested[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback reports whether secrets land in the file backend
func (ps *PasswordStore) IsUsingFallback() bool {
	return ps.usingFallback
}

// Save stores one secret. Empty secrets are not stored.
func (ps *PasswordStore) Save(profile, kind, secret string) error {
	if secret == "" {
		return nil
	}

	err := ps.ring.Set(keyring.Item{
		Key:         makeKey(profile, kind),
		Data:        []byte(secret),
		Label:       fmt.Sprintf("lazysnmp: %s (%s)", profile, kind),
		Description: "SNMP credential for lazysnmp",
	})
	if err != nil {
		return &SecretSaveError{Err: err, Message: "failed to save secret to keyring"}
	}
	return nil
}

// Get reads one secret
func (ps *PasswordStore) Get(profile, kind string) (string, error) {
	item, err := ps.ring.Get(makeKey(profile, kind))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrSecretNotFound
		}
		return "", &SecretReadError{Err: err}
	}
	return string(item.Data), nil
}

// Delete removes one secret; a missing key is not an error
func (ps *PasswordStore) Delete(profile, kind string) error {
	err := ps.ring.Remove(makeKey(profile, kind))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	return nil
}

func makeKey(profile, kind string) string {
	return fmt.Sprintf("%s:%s", profile, kind)
}
