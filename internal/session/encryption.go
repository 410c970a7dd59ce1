package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	secretEnvVar    = "TELECORD_SESSION_SECRET"
	minSecretLength = 16
	nonceSize       = 12
	pbkdf2Iters     = 100000
	keySize         = 32
)

var keySalt = []byte("telecord-session-v1")

// encryptor seals session blobs with AES-256-GCM. With no secret configured
// it passes data through unchanged.
type encryptor struct {
	gcm cipher.AEAD
}

func newEncryptor() (*encryptor, error) {
	secret := os.Getenv(secretEnvVar)
	if secret == "" {
		return &encryptor{gcm: nil}, nil
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%s must be at least %d characters", secretEnvVar, minSecretLength)
	}

	key := pbkdf2.Key([]byte(secret), keySalt, pbkdf2Iters, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &encryptor{gcm: gcm}, nil
}

func (e *encryptor) Seal(plaintext []byte) ([]byte, error) {
	if e.gcm == nil {
		return plaintext, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

func (e *encryptor) Open(data []byte) ([]byte, error) {
	if e.gcm == nil {
		return data, nil
	}

	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	raw = raw[:n]

	if len(raw) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]

	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
