// Package cryptox implements the link token codec: an identifier is sealed
// with AES-256-GCM under a key derived from the process secret and a random
// per-token salt, and the result is rendered as URL-safe base64.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/filestream/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	NonceSize  = 12
	TagSize    = 16
	KeySize    = 32 // AES-256
	Iterations = 100000

	// MinTokenBytes is the decoded length of a token with an empty payload.
	MinTokenBytes = SaltSize + NonceSize + TagSize
)

var tokenEncoding = base64.RawURLEncoding.Strict()

// TokenCodec turns identifiers into opaque tokens and back. It holds no
// per-token state; the secret is its only durable input, so a TokenCodec is
// safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	iterations int
}

// NewTokenCodec returns a codec bound to secret. An empty secret is rejected.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token codec: empty secret")
	}
	return &TokenCodec{secret: []byte(secret), iterations: Iterations}, nil
}

// DeriveKey stretches secret with salt using PBKDF2-HMAC-SHA256.
func DeriveKey(secret, salt []byte, iterations int) []byte {
	return pbkdf2.Key(secret, salt, iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encode seals identifier and returns salt || nonce || ciphertext as
// unpadded URL-safe base64. Each call draws a fresh salt and nonce, so the
// same identifier never yields the same token twice.
func (c *TokenCodec) Encode(identifier string) (string, error) {
	salt, err := common.RandomBytes(SaltSize)
	if err != nil {
		return "", err
	}
	nonce, err := common.RandomBytes(NonceSize)
	if err != nil {
		return "", err
	}

	key := DeriveKey(c.secret, salt, c.iterations)
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, SaltSize+NonceSize+len(identifier)+TagSize)
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = aead.Seal(buf, nonce, []byte(identifier), nil)

	return tokenEncoding.EncodeToString(buf), nil
}

// Decode reverses Encode. Any failure (bad base64, short buffer, failed
// authentication, non UTF-8 plaintext) returns common.ErrInvalidToken and
// nothing else.
func (c *TokenCodec) Decode(token string) (string, error) {
	raw, err := tokenEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil || len(raw) < MinTokenBytes {
		return "", common.ErrInvalidToken
	}

	salt := raw[:SaltSize]
	nonce := raw[SaltSize : SaltSize+NonceSize]
	sealed := raw[SaltSize+NonceSize:]

	key := DeriveKey(c.secret, salt, c.iterations)
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return "", common.ErrInvalidToken
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil || !utf8.Valid(plaintext) {
		return "", common.ErrInvalidToken
	}

	return string(plaintext), nil
}

// EncodeID encodes a numeric identifier in its decimal form.
func (c *TokenCodec) EncodeID(id int64) (string, error) {
	return c.Encode(strconv.FormatInt(id, 10))
}

// DecodeID decodes a token minted by EncodeID. A payload that is not a
// decimal integer is treated like any other invalid token.
func (c *TokenCodec) DecodeID(token string) (int64, error) {
	s, err := c.Decode(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}
