package search

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRequestBlocked is returned when the request budget denies a fetch.
	ErrRequestBlocked = errors.New("request blocked: rate budget exhausted")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// SearchError represents a failed catalog fetch with additional context.
type SearchError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// classifyStatus categorizes an HTTP status code for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
