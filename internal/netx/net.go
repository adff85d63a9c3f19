// Package netx holds the small HTTP helpers shared by the bot API client
// and the object-storage backend.
package netx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/filestream/internal/common"
)

// MaxJSONResponseSize bounds JSON API response reads.
const MaxJSONResponseSize int64 = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s; body: %s", e.Status, e.Body)
}

// Get downloads url and returns at most limit bytes. A body longer than limit
// yields common.ErrFileTooLarge rather than a truncated payload.
func Get(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	if resp.ContentLength > limit {
		return nil, common.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, common.ErrFileTooLarge
	}

	return data, nil
}

// DecodeJSON reads at most MaxJSONResponseSize bytes from body into v.
func DecodeJSON(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxJSONResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}
