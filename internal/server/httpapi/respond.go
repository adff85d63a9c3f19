package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/server/services"
)

// ErrorPayload is the JSON body of every error response.
type ErrorPayload struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type resultPayload struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
}

const (
	codeInvalidToken = 407
	codeInvalidMode  = 408

	descMissingFile  = "Not Found: Missing file parameter"
	descInvalidToken = "File hash invalid or tampered"
	descInvalidMode  = "Not Acceptable: Invalid mode parameter"
	descUnsupported  = "Not Acceptable: File type invalid"
	descRateLimited  = "Too Many Requests: Rate limit exceeded"
	descMethod       = "Method Not Allowed"
	descUnauthorized = "Unauthorized"
	descInternal     = "Internal Server Error"
)

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, description string) {
	writeJSON(w, status, ErrorPayload{OK: false, ErrorCode: code, Description: description})
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, resultPayload{OK: true, Result: result})
}

// writeRetrievalError maps a pipeline error to its status and payload.
func writeRetrievalError(w http.ResponseWriter, err error) {
	var resolveErr *services.ResolveError

	switch {
	case errors.Is(err, common.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, codeInvalidMode, descInvalidMode)
	case errors.Is(err, common.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, http.StatusTooManyRequests, descRateLimited)
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, codeInvalidToken, descInvalidToken)
	case errors.As(err, &resolveErr):
		status := resolveErr.Code
		if status < 400 || status > 599 {
			status = http.StatusNotAcceptable
		}
		desc := resolveErr.Description
		if desc == "" {
			desc = descUnsupported
		}
		writeError(w, status, resolveErr.Code, desc)
	default:
		writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, descInternal)
	}
}
