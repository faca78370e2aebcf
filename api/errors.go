package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a structured server error: the judge answered the request with
// a non-2xx status. Body holds the raw error body when the server sent
// JSON, nil otherwise. Any other error returned by a client method is an
// unstructured failure (network down, body that fails to parse) and
// carries no status at all; callers that need to tell "no such contest"
// from "offline" branch on ErrorStatus.
type Error struct {
	Status int
	Body   json.RawMessage
}

func (e *Error) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("server responded %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server responded %d", e.Status)
}

// ErrorStatus extracts the HTTP status from a structured server error.
// It reports ok=false for unstructured failures.
func ErrorStatus(err error) (status int, ok bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}
