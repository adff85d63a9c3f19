package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFastCodec keeps the tamper grids fast; production codecs always use
// Iterations.
func newFastCodec(t *testing.T, secret string) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(secret)
	require.NoError(t, err)
	c.iterations = 1000
	return c
}

func TestNewTokenCodec_RejectsEmptySecret(t *testing.T) {
	_, err := NewTokenCodec("")
	require.Error(t, err)
}

func TestNewTokenCodec_DefaultIterations(t *testing.T) {
	c, err := NewTokenCodec("s3cr3t")
	require.NoError(t, err)
	assert.Equal(t, Iterations, c.iterations)
	assert.GreaterOrEqual(t, c.iterations, 100000)
}

func TestDeriveKey_KnownVector(t *testing.T) {
	// PBKDF2-HMAC-SHA256, P="passwd", S="salt", c=1 (RFC 7914, first 32 bytes).
	key := DeriveKey([]byte("passwd"), []byte("salt"), 1)
	assert.Equal(t, "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc", hex.EncodeToString(key))
	assert.Len(t, key, KeySize)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	k1 := DeriveKey([]byte("secret"), []byte("salt-1"), 10)
	k2 := DeriveKey([]byte("secret"), []byte("salt-2"), 10)
	assert.NotEqual(t, k1, k2)
}

func TestRoundTrip_ProductionIterations(t *testing.T) {
	c, err := NewTokenCodec("production-secret")
	require.NoError(t, err)

	token, err := c.Encode("1234")
	require.NoError(t, err)

	got, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "1234", got)
}

func TestRoundTrip(t *testing.T) {
	c := newFastCodec(t, "secret")

	for _, id := range []string{"", "1", "42", "9223372036854775807", "привет", "a/b?c=d&e"} {
		token, err := c.Encode(id)
		require.NoError(t, err)

		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")

		got, err := c.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestEncode_Layout(t *testing.T) {
	c := newFastCodec(t, "secret")
	token, err := c.Encode("12345")
	require.NoError(t, err)

	raw, err := tokenEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize+NonceSize+len("12345")+TagSize)
}

func TestEncode_NonDeterministic(t *testing.T) {
	c := newFastCodec(t, "secret")
	a, err := c.Encode("777")
	require.NoError(t, err)
	b, err := c.Encode("777")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecode_SingleBitFlipInToken(t *testing.T) {
	c := newFastCodec(t, "secret")
	token, err := c.Encode("31337")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(token)
			b[i] ^= 1 << bit
			got, err := c.Decode(string(b))
			require.ErrorIs(t, err, common.ErrInvalidToken, "char %d bit %d decoded to %q", i, bit, got)
			require.Empty(t, got)
		}
	}
}

func TestDecode_SingleBitFlipInPayload(t *testing.T) {
	c := newFastCodec(t, "secret")
	token, err := c.Encode("31337")
	require.NoError(t, err)
	raw, err := tokenEncoding.DecodeString(token)
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			b := append([]byte(nil), raw...)
			b[i] ^= 1 << bit
			_, err := c.Decode(tokenEncoding.EncodeToString(b))
			require.ErrorIs(t, err, common.ErrInvalidToken, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecode_CrossSecret(t *testing.T) {
	a := newFastCodec(t, "secret-a")
	b := newFastCodec(t, "secret-b")

	token, err := a.Encode("100")
	require.NoError(t, err)

	_, err = b.Decode(token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_Malformed(t *testing.T) {
	c := newFastCodec(t, "secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!***"},
		{"standard alphabet", "ab+/cd"},
		{"too short", tokenEncoding.EncodeToString(make([]byte, MinTokenBytes-1))},
		{"zero payload", tokenEncoding.EncodeToString(make([]byte, MinTokenBytes+4))},
		{"whitespace", " " + strings.Repeat("A", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decode(tt.token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
			assert.Empty(t, got)
		})
	}
}

func TestDecode_AcceptsTrailingPadding(t *testing.T) {
	c := newFastCodec(t, "secret")
	token, err := c.Encode("5")
	require.NoError(t, err)

	got, err := c.Decode(token + "==")
	require.NoError(t, err)
	assert.Equal(t, "5", got)
}

func TestDecode_RejectsInvalidUTF8(t *testing.T) {
	c := newFastCodec(t, "secret")

	salt := make([]byte, SaltSize)
	nonce := make([]byte, NonceSize)
	key := DeriveKey(c.secret, salt, c.iterations)
	aead, err := newGCM(key)
	require.NoError(t, err)

	buf := append(append([]byte(nil), salt...), nonce...)
	buf = aead.Seal(buf, nonce, []byte{0xff, 0xfe, 0xfd}, nil)

	_, err = c.Decode(tokenEncoding.EncodeToString(buf))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestEncodeID_DecodeID(t *testing.T) {
	c := newFastCodec(t, "secret")

	token, err := c.EncodeID(-1001234)
	require.NoError(t, err)
	id, err := c.DecodeID(token)
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), id)

	notNumeric, err := c.Encode("abc")
	require.NoError(t, err)
	_, err = c.DecodeID(notNumeric)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
