package studioapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the studio backend.
// Detail is the backend's own message when it sent one, otherwise a per-endpoint fallback.
type APIError struct {
	StatusCode int
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// errorBody covers the DRF error shapes the backend produces.
type errorBody struct {
	Detail         string   `json:"detail"`
	NonFieldErrors []string `json:"non_field_errors"`
}

func newAPIError(statusCode int, path string, body []byte, fallback string) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Path: path, Detail: fallback}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}
	switch {
	case eb.Detail != "":
		apiErr.Detail = eb.Detail
	case len(eb.NonFieldErrors) > 0:
		apiErr.Detail = strings.Join(eb.NonFieldErrors, " ")
	}
	return apiErr
}

// String is used in logs where the status matters more than the text.
func (e *APIError) String() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.StatusCode, e.Detail)
}
