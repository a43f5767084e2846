package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNetwork
	KindTimeout
	KindServer
	KindClient
	KindValidation
	KindRejected
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsUnauthorized reports a 401 response.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsNetwork reports failures where no response arrived. Timeouts count.
func IsNetwork(err error) bool {
	k := KindOf(err)
	return k == KindNetwork || k == KindTimeout
}

// IsRetryable reports whether repeating the same call may succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout, KindServer, KindRejected, KindUnknown:
		return true
	default:
		return false
	}
}

// UserMessage is the text a presentation layer shows for err. Unauthorized
// errors map to the empty string: the caller treats them as logged out.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindUnauthorized:
		return ""
	case KindTimeout:
		return "Request timeout - server is taking too long to respond"
	case KindNetwork:
		return "Network connection error, please check your connection"
	case KindServer:
		return "Server error. Please try again later."
	case KindValidation:
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "Please fill in all required fields."
	case KindClient:
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "The request could not be completed."
	default:
		return "Something went wrong, please try again."
	}
}

func validationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: err.Error(), Err: err}
}

func transportError(op string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func statusError(op string, status int, message string) *Error {
	kind := KindClient
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Op: op, Kind: kind, Status: status, Message: message}
}
