package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeConfiguration   = "configuration_error"
	CodeProvider        = "provider_error"
	CodeDataAlignment   = "data_alignment"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func InvalidArgument(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// Configuration reports a missing or unusable credential/setting. It is
// raised at call time, not at startup.
func Configuration(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, CodeConfiguration, fmt.Errorf(format, args...))
}

func Provider(err error) *Error {
	return New(http.StatusBadGateway, CodeProvider, err)
}

// DataAlignment reports parallel answer/question sets whose keys do not
// line up.
func DataAlignment(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeDataAlignment, fmt.Errorf(format, args...))
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries an *Error with the given code.
func Is(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}

// StatusOf maps err to an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	if ae, ok := As(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf maps err to its code, defaulting to "internal".
func CodeOf(err error) string {
	if ae, ok := As(err); ok && ae.Code != "" {
		return ae.Code
	}
	return "internal"
}
