package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// AESKeySize is the key length required for AES-256.
const AESKeySize = 32

// Sealer encrypts secrets at rest with AES-256-GCM.
// Output is base64(nonce || ciphertext).
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a raw 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != AESKeySize {
		return nil, ErrInvalidEncryptionKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromConfig decodes TOTP_ENCRYPTION_KEY and builds a Sealer.
func NewSealerFromConfig(cfg Config) (*Sealer, error) {
	key, err := DecodeEncryptionKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts a plaintext secret.
func (s *Sealer) Seal(plainText string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidCipherTooShort)
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return string(plain), nil
}

// GenerateEncryptionKey creates a new random 32-byte AES-256 key.
func GenerateEncryptionKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateEncryptionKey, err)
	}
	return key, nil
}

// GenerateEncodedEncryptionKey returns a fresh key in the base64 form TOTP_ENCRYPTION_KEY expects.
func GenerateEncodedEncryptionKey() (string, error) {
	key, err := GenerateEncryptionKey()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// DecodeEncryptionKey parses a base64-encoded 32-byte key.
func DecodeEncryptionKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrEncryptionKeyNotSet)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}
	if len(key) != AESKeySize {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrInvalidEncryptionKeyLength)
	}
	return key, nil
}
