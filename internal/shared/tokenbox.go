package shared

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const tokenSealerInfo = "denguechat/access-token"

// ErrSealedTokenInvalid indicates a sealed token failed authentication.
var ErrSealedTokenInvalid = errors.New("sealed token invalid")

// TokenSealer encrypts backend access tokens before they reach Redis.
type TokenSealer struct {
	key []byte
}

// NewTokenSealer derives a XChaCha20-Poly1305 key from secret.
func NewTokenSealer(secret string) *TokenSealer {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(tokenSealerInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		panic(fmt.Sprintf("token sealer: derive key: %v", err))
	}
	return &TokenSealer{key: key}
}

// Seal encrypts token and returns nonce||ciphertext in base64url.
func (s *TokenSealer) Seal(token string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(token)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(token), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *TokenSealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrSealedTokenInvalid
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrSealedTokenInvalid
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealedTokenInvalid
	}
	return string(plain), nil
}
