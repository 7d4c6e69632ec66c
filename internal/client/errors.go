package client

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes client errors.
type ErrorCode string

const (
	// ErrCodeTransport indicates the request never produced a response
	// (connection refused, DNS, cancelled context, body read failure).
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// ErrCodeHTTPStatus indicates the endpoint answered with a non-200 status.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS"

	// ErrCodeMalformedResponse indicates a 200 response whose body is not a
	// valid SPARQL results document.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// ErrCodeInvalidMutation indicates a mutation was rejected before any
	// request was sent.
	ErrCodeInvalidMutation ErrorCode = "INVALID_MUTATION"
)

// Error is the failure of one client operation.
//
// For HTTP_STATUS errors StatusCode, Status and Body hold the endpoint's
// response. For TRANSPORT, MALFORMED_RESPONSE and INVALID_MUTATION errors
// Err holds the underlying cause.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the request (empty for INVALID_MUTATION).
	RequestID string

	// StatusCode is the HTTP status code, 0 when no response was received.
	StatusCode int

	// Status is the HTTP status line text, e.g. "500 Internal Server Error".
	Status string

	// Body is the raw response body.
	Body []byte

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (request=%s)", e.RequestID)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if the request failed before a response
// was received. Uses errors.As to handle wrapped errors.
func IsTransportError(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsStatusError returns true if the endpoint answered with a non-200 status.
func IsStatusError(err error) bool {
	return hasCode(err, ErrCodeHTTPStatus)
}

// IsMalformedResponse returns true if a 200 response could not be parsed.
func IsMalformedResponse(err error) bool {
	return hasCode(err, ErrCodeMalformedResponse)
}

// IsInvalidMutation returns true if a mutation failed validation.
func IsInvalidMutation(err error) bool {
	return hasCode(err, ErrCodeInvalidMutation)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newTransportError(requestID string, err error) *Error {
	return &Error{
		Code:      ErrCodeTransport,
		Message:   "request failed",
		RequestID: requestID,
		Err:       err,
	}
}

func newStatusError(requestID string, statusCode int, status string, body []byte) *Error {
	return &Error{
		Code:       ErrCodeHTTPStatus,
		Message:    fmt.Sprintf("endpoint returned %s", status),
		RequestID:  requestID,
		StatusCode: statusCode,
		Status:     status,
		Body:       body,
	}
}

func newMalformedError(requestID string, statusCode int, body []byte, err error) *Error {
	return &Error{
		Code:       ErrCodeMalformedResponse,
		Message:    "invalid results document",
		RequestID:  requestID,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

func newInvalidMutationError(err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidMutation,
		Message: "mutation rejected",
		Err:     err,
	}
}
