// Package apierr carries an HTTP status and a stable error code along
// with the underlying error, so handlers can pre-map failures before
// they reach the shared response envelope.
package apierr

import (
	"fmt"
	"net/http"
)

// Error is unwrapped by the response layer with errors.As; Status and
// Code are written to the wire verbatim, so codes must stay stable once
// clients depend on them.
type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func Conflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	case e.Status != 0:
		return fmt.Sprintf("api error (%d)", e.Status)
	default:
		return "api error"
	}
}

func (e *Error) Unwrap() error { return e.Err }
