package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("hello"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer ts.Close()

	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		b, err := Get(ctx, ts.Client(), ts.URL+"/ok", 1024)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
	})

	t.Run("exact limit", func(t *testing.T) {
		b, err := Get(ctx, ts.Client(), ts.URL+"/ok", 5)
		require.NoError(t, err)
		assert.Len(t, b, 5)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Get(ctx, ts.Client(), ts.URL+"/big", 10)
		assert.ErrorIs(t, err, common.ErrFileTooLarge)
	})

	t.Run("status error", func(t *testing.T) {
		_, err := Get(ctx, ts.Client(), ts.URL+"/missing", 10)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.Contains(t, se.Body, "nope")
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := Get(ctx, ts.Client(), ts.URL+"/slow", 10)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"ok":true}`), &v))
	assert.True(t, v.OK)

	assert.Error(t, DecodeJSON(strings.NewReader(`{`), &v))
}
