package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindForbidden          ErrorKind = "forbidden"
	KindNotFound           ErrorKind = "not_found"
	KindServerError        ErrorKind = "server_error"
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	KindValidation         ErrorKind = "validation_error"
)

// Sentinels for errors.Is. They compare by kind only.
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrServerError        = &Error{Kind: KindServerError}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrValidation         = &Error{Kind: KindValidation}
)

const (
	genericErrorMessage   = "An error occurred while processing your request"
	unreachableMessage    = "Unable to reach the travel service. Make sure the backend is running"
	invalidLoginMessage   = "Incorrect username or password"
	sessionExpiredMessage = "Your session has expired, please log in again"
)

// Error is the classified outcome of a failed API call. Status is zero
// when no HTTP response was received.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if len(e.Message) > 0 {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NewValidationError(err error) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: err.Error(),
		Err:     err,
	}
}

func NewNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkUnavailable,
		Message: unreachableMessage,
		Err:     err,
	}
}

// KindOf returns the classification of err, or "" when err was not
// produced by this package.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuthFailure reports whether err means the credential was rejected.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidCredentials)
}

// classifyStatus maps an HTTP status onto the error taxonomy. loginCall
// marks the token submission, whose 401 means bad credentials rather than
// an expired session.
func classifyStatus(status int, loginCall bool) ErrorKind {
	switch {
	case status == http.StatusUnauthorized && loginCall:
		return KindInvalidCredentials
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServerError
	}
}

func classifyResponse(resp *resty.Response, loginCall bool) *Error {
	status := resp.StatusCode()
	kind := classifyStatus(status, loginCall)

	message := extractDetail(resp.Body())
	if len(message) == 0 {
		message = fallbackMessage(kind, status)
	}

	return &Error{
		Kind:    kind,
		Status:  status,
		Message: message,
		Err:     fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status()),
	}
}

func fallbackMessage(kind ErrorKind, status int) string {
	switch kind {
	case KindInvalidCredentials:
		return invalidLoginMessage
	case KindUnauthorized:
		return sessionExpiredMessage
	case KindForbidden:
		return "You do not have permission to access this resource"
	case KindNotFound:
		return "The requested resource does not exist"
	}
	if status > 0 {
		return fmt.Sprintf("Error Code: %d", status)
	}
	return genericErrorMessage
}

// extractDetail pulls the human readable message out of an error body.
// The service uses `detail` for HTTP errors and `error` for pipeline
// failures; validation errors arrive as a list of objects.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			messages := make([]string, 0, len(items))
			for _, item := range items {
				if len(item.Msg) > 0 {
					messages = append(messages, item.Msg)
				}
			}
			if len(messages) > 0 {
				return strings.Join(messages, "; ")
			}
		}
	}

	return strings.TrimSpace(payload.Error)
}
