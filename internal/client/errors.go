package client

import (
	"errors"
	"fmt"
	"net/http"

	"user-console/internal/domain"
)

// APIError is returned by every failed client call.
// StatusCode is zero when the request never got a response.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is maps 404 to domain.ErrUserNotFound and 400 to domain.ErrEmailRegistered.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrUserNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrEmailRegistered:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound)
}

// IsConflict reports whether err is a duplicate-email rejection.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrEmailRegistered)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
