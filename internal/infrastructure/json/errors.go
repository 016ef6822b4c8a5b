package json

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse is the body of every non-2xx REST reply. Code is a stable
// machine-readable identifier; Message is meant for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

const (
	CodeBadRequest     = "bad_request"
	CodeValidation     = "validation_failed"
	CodeNotFound       = "not_found"
	CodeRateLimited    = "rate_limited"
	CodeNotImplemented = "not_implemented"
	CodeInternal       = "internal"
)

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: msg,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteNotFoundError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, msg)
}

func WriteValidationError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, CodeValidation, err.Error())
}

func WriteBadRequestError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, msg)
}

func WriteNotImplementedError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotImplemented, CodeNotImplemented, msg)
}

// WriteInternalError never exposes the cause; callers log it.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
}

func WriteRateLimitError(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	WriteError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests. Please try again later.")
}
