package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filestream/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = orig })
}

func stubPassword(t *testing.T, pw string, err error) *int {
	t.Helper()
	calls := 0
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		calls++
		return []byte(pw), err
	}
	t.Cleanup(func() { readPassword = orig })
	return &calls
}

func run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := NewApp(&out, &errOut).Run(args)
	return code, out.String(), errOut.String()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	stubEnv(t, map[string]string{envSecretKey: "link-secret"})
	stubPassword(t, "", errors.New("should not prompt"))

	code, out, _ := run("encode", "42", "7")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id, tok, ok := strings.Cut(lines[0], "\t")
	require.True(t, ok)
	assert.Equal(t, "42", id)

	code, out, _ = run("decode", tok)
	require.Equal(t, 0, code)
	assert.Equal(t, tok+"\t42\n", out)
}

func TestDecode_InvalidToken(t *testing.T) {
	stubEnv(t, map[string]string{envSecretKey: "link-secret"})

	code, out, errOut := run("decode", "not-a-token")
	assert.Equal(t, 1, code)
	assert.Equal(t, "not-a-token\tinvalid\n", out)
	assert.Contains(t, errOut, "did not decode")
}

func TestEncode_PromptsWithoutEnv(t *testing.T) {
	stubEnv(t, nil)
	calls := stubPassword(t, "typed-secret\n", nil)

	code, out, errOut := run("encode", "1")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, *calls)
	assert.Contains(t, errOut, "Link secret: ")
	assert.True(t, strings.HasPrefix(out, "1\t"))
}

func TestEncode_Errors(t *testing.T) {
	stubEnv(t, nil)

	stubPassword(t, "", nil)
	code, _, errOut := run("encode", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "empty secret")

	stubPassword(t, "", errors.New("no tty"))
	code, _, errOut = run("encode", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no tty")

	code, _, errOut = run("encode", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `bad id "abc"`)
}

func TestAdminToken(t *testing.T) {
	stubEnv(t, map[string]string{envAdminSecret: "admin-secret"})

	code, out, _ := run("admin-token", "-sub", "ops", "-validity", "5m")
	require.Equal(t, 0, code)

	sub, err := auth.GetSubjectFromToken(strings.TrimSpace(out), []byte("admin-secret"))
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestAdminToken_BadValidity(t *testing.T) {
	stubEnv(t, map[string]string{envAdminSecret: "admin-secret"})

	code, _, errOut := run("admin-token", "-validity", (-time.Minute).String())
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "validity must be positive")
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"bogus"}, {"encode"}, {"decode"}, {"admin-token", "-nope"}, {"admin-token", "extra"}} {
		code, _, errOut := run(args...)
		assert.Equal(t, 2, code, args)
		assert.Contains(t, errOut, "Usage:")
	}

	code, out, _ := run("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "admin-token")
}
