package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Sealer converts secrets to and from an at-rest form.
type Sealer interface {
	// Seal encrypts a plaintext secret.
	Seal(plaintext []byte) ([]byte, error)

	// Unseal decrypts sealed bytes back to the secret.
	Unseal(sealed []byte) ([]byte, error)
}

// ErrInvalidCiphertext is returned when sealed bytes are too short or
// fail authentication.
var ErrInvalidCiphertext = errors.New("invalid sealed data")

// AESGCM seals secrets with AES-256-GCM. The nonce is prepended to the
// ciphertext.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates a sealer from a 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("seal key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *AESGCM) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Unseal decrypts sealed bytes produced by Seal.
func (s *AESGCM) Unseal(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return plaintext, nil
}

// Plaintext is a pass-through sealer for tests and local development.
type Plaintext struct{}

// Seal returns a copy of the input.
func (Plaintext) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}

// Unseal returns a copy of the input.
func (Plaintext) Unseal(sealed []byte) ([]byte, error) {
	out := make([]byte, len(sealed))
	copy(out, sealed)
	return out, nil
}
