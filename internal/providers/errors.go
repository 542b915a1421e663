// Package providers holds what the external provider clients share: error
// types and response classification.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amelia751/cloudly/internal/metrics"
)

var (
	// ErrNotConfigured is returned when a provider API key is missing.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrUnavailable is returned when a provider could not be reached at all.
	ErrUnavailable = errors.New("provider unavailable")
)

// NotConfigured reports the missing setting by its environment name. The
// result matches ErrNotConfigured.
func NotConfigured(key string) error {
	return &notConfiguredError{key: key}
}

type notConfiguredError struct{ key string }

func (e *notConfiguredError) Error() string        { return e.key + " is not configured" }
func (e *notConfiguredError) Is(target error) bool { return target == ErrNotConfigured }

// Error is a non-2xx response from a provider. Body is the upstream payload
// verbatim when it is JSON, or the raw text encoded as a JSON string.
type Error struct {
	Provider  string
	Operation string
	Status    int
	Body      json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Provider, e.Operation, e.Status, string(e.Body))
}

// AsError unwraps err into a provider *Error.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Do executes a prepared resty request, records metrics, and classifies the
// outcome. On success it returns the raw response body.
func Do(req *resty.Request, provider, operation, method, path string) (json.RawMessage, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.ObserveProviderCall(provider, operation, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, provider, operation, err)
	}
	metrics.ObserveProviderCall(provider, operation, resp.StatusCode(), time.Since(start))

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, &Error{Provider: provider, Operation: operation, Status: resp.StatusCode(), Body: RawBody(body)}
	}
	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return RawBody(body), nil
}

// RawBody keeps JSON bodies as-is and quotes anything else as a JSON string.
func RawBody(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	quoted, _ := json.Marshal(string(b))
	return json.RawMessage(quoted)
}
