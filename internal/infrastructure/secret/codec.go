// Package secret seals API keys with AES-256-GCM. The key material is kept
// in the key-value store as a JWK under ENCRYPTION_KEY and created on first
// use.
package secret

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	jose "github.com/go-jose/go-jose/v3"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

const (
	keySize   = 32
	nonceSize = 12
	algorithm = "A256GCM"
)

// ErrUndecryptable is returned for any stored value that cannot be opened:
// a legacy plaintext key, a malformed envelope, missing key material or a
// failed authentication tag.
var ErrUndecryptable = errors.New("stored value is not a decryptable envelope")

// Codec implements ports.SecretCodec.
type Codec struct {
	store ports.KeyValueStore

	mu  sync.Mutex
	key []byte
}

// NewCodec returns a Codec backed by store.
func NewCodec(store ports.KeyValueStore) *Codec {
	return &Codec{store: store}
}

// Encrypt seals plaintext under a fresh 12-byte nonce.
func (c *Codec) Encrypt(ctx context.Context, plaintext string) (domain.Envelope, error) {
	key, err := c.keyMaterial(ctx, true)
	if err != nil {
		return domain.Envelope{}, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return domain.Envelope{}, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.Envelope{}, fmt.Errorf("generate nonce: %w", err)
	}
	return domain.Envelope{
		IV:         nonce,
		Ciphertext: gcm.Seal(nil, nonce, []byte(plaintext), nil),
	}, nil
}

// Decrypt opens a stored envelope. It never falls back to treating the
// stored value as plaintext.
func (c *Codec) Decrypt(ctx context.Context, stored []byte) (string, error) {
	var env domain.Envelope
	if err := json.Unmarshal(stored, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	if len(env.IV) != nonceSize || env.Empty() {
		return "", fmt.Errorf("%w: incomplete envelope", ErrUndecryptable)
	}
	key, err := c.keyMaterial(ctx, false)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	return string(plaintext), nil
}

func (c *Codec) keyMaterial(ctx context.Context, create bool) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != nil {
		return c.key, nil
	}

	raw, err := c.store.GetRaw(ctx, domain.KeyEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("read key material: %w", err)
	}
	if raw != nil {
		key, err := parseJWK(raw)
		if err != nil {
			return nil, err
		}
		c.key = key
		return key, nil
	}
	if !create {
		return nil, fmt.Errorf("%w: no key material", ErrUndecryptable)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	jwk, err := jose.JSONWebKey{Key: key, Algorithm: algorithm}.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	if err := c.store.Set(ctx, domain.KeyEncryptionKey, json.RawMessage(jwk)); err != nil {
		return nil, fmt.Errorf("store key material: %w", err)
	}
	c.key = key
	return key, nil
}

func parseJWK(raw []byte) ([]byte, error) {
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: key material: %v", ErrUndecryptable, err)
	}
	key, ok := jwk.Key.([]byte)
	if !ok || len(key) != keySize {
		return nil, fmt.Errorf("%w: key material is not a 256-bit symmetric key", ErrUndecryptable)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

var _ ports.SecretCodec = (*Codec)(nil)
