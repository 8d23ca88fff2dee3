// Package credentials provides the secrets the netnotes CLI needs, currently
// only the PostgreSQL password.
//
// Secrets are read from the environment first, then from the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI/testing environments, set NETNOTES_DB_PASSWORD.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "netnotes-cli"
	// dbPasswordUser is the account name holding the database password.
	dbPasswordUser = "db-password"

	// DBPasswordEnv overrides the keyring.
	DBPasswordEnv = "NETNOTES_DB_PASSWORD"
)

var (
	// ErrNoSecret is returned when no provider holds the secret.
	ErrNoSecret = errors.New("no secret stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// SecretProvider reads and writes one named secret.
type SecretProvider interface {
	// Get returns ErrNoSecret when nothing is stored.
	Get() (string, error)
	Set(value string) error
	// Description returns a human-readable description of the storage mechanism.
	Description() string
}

// KeyringProvider stores a secret in the system keyring.
type KeyringProvider struct {
	mu      sync.Mutex
	service string
	user    string
}

// NewKeyringProvider creates a provider for the given keyring account.
func NewKeyringProvider(user string) *KeyringProvider {
	return &KeyringProvider{service: keyringService, user: user}
}

func (p *KeyringProvider) Get() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, err := keyring.Get(p.service, p.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func (p *KeyringProvider) Set(value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := keyring.Set(p.service, p.user, value); err != nil {
		return fmt.Errorf("%w: storing secret: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Delete removes the secret. Deleting a missing secret is not an error.
func (p *KeyringProvider) Delete() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := keyring.Delete(p.service, p.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: deleting secret: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

func (p *KeyringProvider) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// EnvProvider reads a secret from an environment variable. It is read-only.
type EnvProvider struct {
	envVar string
}

// NewEnvProvider creates a provider reading envVar.
func NewEnvProvider(envVar string) *EnvProvider {
	return &EnvProvider{envVar: envVar}
}

func (p *EnvProvider) Get() (string, error) {
	v := os.Getenv(p.envVar)
	if v == "" {
		return "", ErrNoSecret
	}
	return v, nil
}

func (p *EnvProvider) Set(string) error {
	return fmt.Errorf("cannot store into environment variable %s", p.envVar)
}

func (p *EnvProvider) Description() string {
	return fmt.Sprintf("Environment variable (%s)", p.envVar)
}

// Chain tries providers in order and returns the first stored secret.
// Set writes to the last provider.
type Chain []SecretProvider

func (c Chain) Get() (string, error) {
	for _, p := range c {
		v, err := p.Get()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNoSecret) {
			return "", err
		}
	}
	return "", ErrNoSecret
}

func (c Chain) Set(value string) error {
	if len(c) == 0 {
		return errors.New("no secret providers configured")
	}
	return c[len(c)-1].Set(value)
}

func (c Chain) Description() string {
	if len(c) == 0 {
		return "none"
	}
	desc := c[0].Description()
	for _, p := range c[1:] {
		desc += ", then " + p.Description()
	}
	return desc
}

// DatabasePasswordProvider returns the default lookup order:
// NETNOTES_DB_PASSWORD, then the system keyring.
func DatabasePasswordProvider() SecretProvider {
	return Chain{NewEnvProvider(DBPasswordEnv), NewKeyringProvider(dbPasswordUser)}
}

// DatabasePassword returns the stored PostgreSQL password, or "" when none is
// stored anywhere. Keyring failures are returned.
func DatabasePassword() (string, error) {
	v, err := DatabasePasswordProvider().Get()
	if errors.Is(err, ErrNoSecret) {
		return "", nil
	}
	return v, err
}

// SetDatabasePassword stores the PostgreSQL password in the system keyring.
func SetDatabasePassword(password string) error {
	if password == "" {
		return errors.New("password is empty")
	}
	return NewKeyringProvider(dbPasswordUser).Set(password)
}
