package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 1024

// APIError describes a failed call to one of the external APIs. StatusCode
// is the HTTP status; Status carries the API-level status string for
// services (Google Maps) that report failures inside a 200 response.
type APIError struct {
	Service    string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API error: status %d", e.Service, e.StatusCode)
	if e.Status != "" {
		fmt.Fprintf(&b, " (%s)", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// StatusCode extracts the HTTP status of an APIError anywhere in err's chain.
// It returns 0 for transport failures and non-API errors.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// newAPIError reads a bounded excerpt of the response body. JSON bodies with
// a "message" or "error_message" field are reduced to that field.
func newAPIError(service string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(body))
	var payload struct {
		Message      string `json:"message"`
		ErrorMessage string `json:"error_message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.ErrorMessage != "":
			msg = payload.ErrorMessage
		}
	}

	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
