package store

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Encryptor wraps a cached CodeBlock's gob payload with
// XChaCha20-Poly1305 AEAD, the same primitive and HKDF-SHA256 key
// derivation the teacher's internal/db/encrypt.go uses for its SQLite
// column encryption — adapted here from a block-cipher-selectable
// (AES-256-GCM or XChaCha20-Poly1305) design down to XChaCha20-Poly1305
// only, since this cache has no legacy-format column to stay
// compatible with.
type Encryptor struct {
	key []byte
}

const (
	storeKeyLen = 32
	storeSalt   = "esengine/internal/store/v1"
)

func newEncryptor(masterKey string) (*Encryptor, error) {
	key, err := deriveKey([]byte(masterKey), []byte(storeSalt), []byte("code-block-cache"), storeKeyLen)
	if err != nil {
		return nil, err
	}
	return &Encryptor{key: key}, nil
}

func deriveKey(masterKey, salt, info []byte, keyLen int) ([]byte, error) {
	h := hkdf.New(sha256.New, masterKey, salt, info)
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("store: deriving key: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext, prefixing the result with a random nonce.
func (e *Encryptor) seal(plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// open decrypts a payload produced by seal.
func (e *Encryptor) open(ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("store: ciphertext shorter than nonce")
	}
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, body, aad)
}
