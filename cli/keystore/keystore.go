// Package keystore provides encrypted storage for API keys.
package keystore

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// PassphraseEnvVar names the environment variable holding the keystore passphrase.
const PassphraseEnvVar = "OPENROUTER_KEYSTORE_PASSPHRASE"

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns error if not found.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// MasterKeySource supplies the secret that file encryption keys are derived from.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// PassphraseSource uses a user-supplied passphrase as the master key.
type PassphraseSource string

// GetMasterKey returns the passphrase bytes.
func (p PassphraseSource) GetMasterKey() ([]byte, error) {
	if p == "" {
		return nil, errors.New("keystore passphrase is empty")
	}
	return []byte(p), nil
}

// MachineSource derives the master key from the host name and user name.
// It only protects against casual reads of the file; set
// OPENROUTER_KEYSTORE_PASSPHRASE for a real secret.
type MachineSource struct{}

// GetMasterKey returns a digest of machine-specific data.
func (MachineSource) GetMasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	hash := sha256.Sum256([]byte(hostname + ":" + username + ":openrouter-keystore"))
	return hash[:], nil
}

// DefaultMasterKeySource returns a PassphraseSource when
// OPENROUTER_KEYSTORE_PASSPHRASE is set and MachineSource otherwise.
func DefaultMasterKeySource() MasterKeySource {
	if p := os.Getenv(PassphraseEnvVar); p != "" {
		return PassphraseSource(p)
	}
	return MachineSource{}
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.openrouter/keys.enc
// - Windows: %USERPROFILE%\.openrouter\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".openrouter", "keys.enc")
}

// NewKeystore opens the file keystore at the default path with the default
// master key source.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultMasterKeySource())
}
