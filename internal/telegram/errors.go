package telegram

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResult marks an {"ok":true} reply whose result is missing or null.
var ErrEmptyResult = errors.New("empty result")

// APIError is an {"ok":false} reply from the bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsTooManyRequests reports whether err is a bot API flood-control reply.
func IsTooManyRequests(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.Code == http.StatusTooManyRequests
}
