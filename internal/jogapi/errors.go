package jogapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWrongEndpoint        = errors.New("wrong endpoint")
	ErrMalformedRequestBody = errors.New("malformed request body")
	ErrClientError          = errors.New("client error")
	ErrServerError          = errors.New("server error")
	ErrDecodeFailure        = errors.New("response decode failure")
	ErrMissingParameter     = errors.New("missing required parameter")
	ErrTransport            = errors.New("transport error")
	ErrUnknownStatus        = errors.New("unknown status")
)

// RequestError describes a failed call to the remote jog service.
// Kind is one of the sentinel errors above, so callers can match with errors.Is.
type RequestError struct {
	Op         string
	StatusCode int
	Kind       error
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("jogapi %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindForStatus maps a non 2xx status code to its error kind.
func kindForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusNotFound:
		return ErrWrongEndpoint
	case statusCode >= 400 && statusCode < 500:
		return ErrClientError
	case statusCode >= 500 && statusCode < 600:
		return ErrServerError
	default:
		return ErrUnknownStatus
	}
}
