package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"marketfront/internal/domain"
)

// ErrNetwork wraps transport failures: the backend could not be reached or the
// connection broke before a response arrived.
var ErrNetwork = errors.New("backend unreachable")

// ValidationError is a 4xx rejection of the request's content.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("backend rejected request (%d): %s [%s]", e.Status, e.Message, strings.Join(parts, "; "))
}

// StatusError is any other non-2xx answer. 401/403 unwrap to
// domain.ErrAuthRequired and 404 to domain.ErrNotFound.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthRequired
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// errorBody covers the shapes seen from the backend: Spring's default error
// document, a message/errors pair, or a field-error list.
type errorBody struct {
	Message     string            `json:"message"`
	Error       string            `json:"error"`
	Errors      map[string]string `json:"errors"`
	FieldErrors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fieldErrors"`
}

const maxMessage = 200

func statusError(status int, body []byte) error {
	msg, fields := parseErrorBody(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Status: status, Message: msg, Fields: fields}
	}
	return &StatusError{Status: status, Message: msg}
}

func parseErrorBody(body []byte) (string, map[string]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}
	var eb errorBody
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), &eb) == nil {
		fields := map[string]string{}
		for k, v := range eb.Errors {
			fields[k] = v
		}
		for _, fe := range eb.FieldErrors {
			if fe.Field != "" {
				fields[fe.Field] = fe.Message
			}
		}
		if len(fields) == 0 {
			fields = nil
		}
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		return clip(msg), fields
	}
	return clip(trimmed), nil
}

// clip cuts s to at most maxMessage bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	cut := maxMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
