package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-marketplace-auth/core"
)

// AESCipher encrypts secret strings with AES-256-GCM. The wire shape is
// hex(nonce):hex(sealed), where sealed carries the GCM auth tag, so a
// wrong-key decrypt fails loudly instead of yielding garbage.
type AESCipher struct {
	key []byte
}

// NewAESCipher derives a 256-bit key from the supplied material. Material
// shorter than core.MinCipherKeyLength is refused outright; a weak key is a
// fatal configuration error, never a warning.
func NewAESCipher(keyMaterial string) (*AESCipher, error) {
	trimmed := strings.TrimSpace(keyMaterial)
	if len(trimmed) < core.MinCipherKeyLength {
		return nil, fmt.Errorf("%w: cipher key must be at least %d characters, got %d",
			core.ErrConfig, core.MinCipherKeyLength, len(trimmed))
	}
	return &AESCipher{key: normalizeKey([]byte(trimmed))}, nil
}

func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", fmt.Errorf("security: cipher is not configured")
	}
	if plaintext == "" {
		return "", fmt.Errorf("security: plaintext is required")
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("security: create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("security: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", fmt.Errorf("security: cipher is not configured")
	}
	nonce, sealed, err := splitCiphertext(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("security: create gcm: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("%w: nonce length %d", core.ErrMalformedCiphertext, len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrDecryptionFailed, core.DescribeSecret(ciphertext))
	}
	return string(plaintext), nil
}

// splitCiphertext enforces the hex(nonce):hex(payload) shape. Anything else,
// including the empty string, is malformed rather than a decryption failure:
// the distinction keeps storage corruption apart from key rotation.
func splitCiphertext(ciphertext string) ([]byte, []byte, error) {
	trimmed := strings.TrimSpace(ciphertext)
	if trimmed == "" {
		return nil, nil, fmt.Errorf("%w: empty ciphertext", core.ErrMalformedCiphertext)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, fmt.Errorf("%w: expected iv:payload, got %d segments", core.ErrMalformedCiphertext, len(parts))
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv is not hex", core.ErrMalformedCiphertext)
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: payload is not hex", core.ErrMalformedCiphertext)
	}
	return nonce, sealed, nil
}

func normalizeKey(value []byte) []byte {
	if len(value) == 32 {
		key := make([]byte, len(value))
		copy(key, value)
		return key
	}
	sum := sha256.Sum256(value)
	key := make([]byte, len(sum))
	copy(key, sum[:])
	return key
}
