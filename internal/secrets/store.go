// Package secrets keeps provider API keys out of the plain-text config.
// Keys live in a 0600 JSON file, each sealed with XChaCha20-Poly1305 under a
// machine-derived key and bound to its provider name.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jask/claritycanvas/internal/atomicfile"
)

const fileName = "keys.json"

var (
	ErrNotFound        = errors.New("key not found")
	errProviderMissing = errors.New("provider required")
)

// Keyring is the key file of one user.
type Keyring struct {
	path string
}

// Open returns the keyring in dir, or in the user config dir when dir is empty.
func Open(dir string) (*Keyring, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "claritycanvas")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir keyring dir: %w", err)
	}
	return &Keyring{path: filepath.Join(dir, fileName)}, nil
}

// Set stores key for provider, replacing any earlier one.
func (k *Keyring) Set(provider, key string) error {
	provider, err := providerName(provider)
	if err != nil {
		return err
	}
	sealed, err := seal(provider, []byte(key))
	if err != nil {
		return err
	}
	return k.update(func(entries map[string][]byte) { entries[provider] = sealed })
}

// Get returns the key of provider or ErrNotFound.
func (k *Keyring) Get(provider string) (string, error) {
	provider, err := providerName(provider)
	if err != nil {
		return "", err
	}
	entries, err := k.read()
	if err != nil {
		return "", err
	}
	sealed, ok := entries[provider]
	if !ok {
		return "", ErrNotFound
	}
	plain, err := open(provider, sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt %s key: %w", provider, err)
	}
	return string(plain), nil
}

// Delete removes the key of provider. Deleting a missing key is not an error.
func (k *Keyring) Delete(provider string) error {
	provider, err := providerName(provider)
	if err != nil {
		return err
	}
	return k.update(func(entries map[string][]byte) { delete(entries, provider) })
}

func (k *Keyring) update(fn func(map[string][]byte)) error {
	entries, err := k.read()
	if err != nil {
		return err
	}
	fn(entries)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.Write(k.path, data, 0o600)
}

// read decodes the key file; a missing file is an empty keyring.
func (k *Keyring) read() (map[string][]byte, error) {
	entries := map[string][]byte{}
	data, err := os.ReadFile(k.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", k.path, err)
	}
	return entries, nil
}

func providerName(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", errProviderMissing
	}
	return s, nil
}

func machineKey() []byte {
	sum := sha256.Sum256([]byte("claritycanvas-" + runtime.GOOS + "-" + os.Getenv("USER")))
	return sum[:]
}

// seal returns nonce|ciphertext with the provider name as associated data.
func seal(provider string, plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(machineKey())
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, []byte(provider)), nil
}

func open(provider string, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(machineKey())
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, body, []byte(provider))
}
