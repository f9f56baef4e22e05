package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors wrapped by *Error and transport failures.
var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrUnavailable  = errors.New("api: backend unavailable")
)

// ErrorItem is one entry of the backend error list.
type ErrorItem struct {
	Code   string `json:"error_code"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// Error is returned for any non-2xx backend response.
type Error struct {
	Status int
	Items  []ErrorItem
}

func (e *Error) Error() string {
	if len(e.Items) == 0 {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msg := item.Code
		if item.Detail != "" {
			msg += ": " + item.Detail
		}
		if item.Field != "" {
			msg = item.Field + " " + msg
		}
		parts = append(parts, msg)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, strings.Join(parts, "; "))
}

// Unwrap maps status codes onto the package sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}
	return nil
}

// FieldErrors returns the items scoped to a form field.
func (e *Error) FieldErrors() []ErrorItem {
	var out []ErrorItem
	for _, item := range e.Items {
		if item.Field != "" {
			out = append(out, item)
		}
	}
	return out
}

// wireError accepts both the backend's flat shape and standard JSON:API
// error objects.
type wireError struct {
	ErrorCode string `json:"error_code"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	Title     string `json:"title"`
	Field     string `json:"field"`
	Source    *struct {
		Pointer   string `json:"pointer"`
		Parameter string `json:"parameter"`
	} `json:"source"`
}

func parseError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	var payload struct {
		Errors []wireError `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	for _, w := range payload.Errors {
		item := ErrorItem{Code: w.ErrorCode, Detail: w.Detail, Field: w.Field}
		if item.Code == "" {
			item.Code = w.Code
		}
		if item.Detail == "" {
			item.Detail = w.Title
		}
		if item.Field == "" && w.Source != nil {
			item.Field = fieldFromPointer(w.Source.Pointer)
			if item.Field == "" {
				item.Field = w.Source.Parameter
			}
		}
		apiErr.Items = append(apiErr.Items, item)
	}
	return apiErr
}

// fieldFromPointer reduces "/data/attributes/first_name" to "first_name".
func fieldFromPointer(pointer string) string {
	pointer = strings.TrimSpace(pointer)
	if pointer == "" || pointer == "/data" || pointer == "/" {
		return ""
	}
	idx := strings.LastIndex(pointer, "/")
	return pointer[idx+1:]
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
