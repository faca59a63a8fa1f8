// Package tokencrypt seals OAuth tokens before they cross the persistence
// boundary. Only ciphertext ever leaves this package.
package tokencrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEmptyPlaintext  = errors.New("tokencrypt: plaintext must not be empty")
	ErrEmptyCiphertext = errors.New("tokencrypt: ciphertext must not be empty")
)

// KeyProvider supplies 32-byte key material scoped to a single purpose, so
// rotating or losing the CGM-token key cannot affect any other encryption
// use in the system.
type KeyProvider interface {
	Key(purpose string) ([]byte, error)
}

// StaticKeyProvider derives purpose-scoped keys from one master secret via
// SHA-256 over the secret and the purpose label.
type StaticKeyProvider struct {
	master []byte
}

func NewStaticKeyProvider(master []byte) (*StaticKeyProvider, error) {
	if len(master) < 32 {
		return nil, fmt.Errorf("tokencrypt: master key is %d bytes, need at least 32", len(master))
	}
	return &StaticKeyProvider{master: master}, nil
}

func (p *StaticKeyProvider) Key(purpose string) ([]byte, error) {
	if purpose == "" {
		return nil, errors.New("tokencrypt: purpose must not be empty")
	}
	h := sha256.New()
	h.Write(p.master)
	h.Write([]byte(purpose))
	return h.Sum(nil), nil
}

// PurposeCgmTokens scopes the key used for CGM OAuth tokens.
const PurposeCgmTokens = "cgm-oauth-tokens"

// Service encrypts and decrypts token strings with AES-256-GCM. The random
// nonce is prepended to the ciphertext.
type Service struct {
	aead cipher.AEAD
}

func NewService(keys KeyProvider, purpose string) (*Service, error) {
	key, err := keys.Key(purpose)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: init gcm: %w", err)
	}
	return &Service{aead: aead}, nil
}

// Encrypt seals a token. There is no valid encoding of an empty token.
func (s *Service) Encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("tokencrypt: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a sealed token.
func (s *Service) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", ErrEmptyCiphertext
	}
	if len(ciphertext) <= s.aead.NonceSize() {
		return "", errors.New("tokencrypt: ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("tokencrypt: open: %w", err)
	}
	return string(plaintext), nil
}
