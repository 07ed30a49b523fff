package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes shared by services and handlers.
const (
	CodeValidation         = "validation_error"
	CodeDuplicateEmail     = "duplicate_email"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeAIFailure          = "ai_failure"
	CodeServerError        = "server_error"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
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

// PublicMessage is the text safe to return to clients. Server errors never
// leak their cause.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status >= http.StatusInternalServerError || e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

func DuplicateEmail(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeDuplicateEmail, Message: msg}
}

func InvalidCredentials() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid email or password"}
}

func Unauthorized(err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "Not authorized, token failed", Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func AIFailure(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeAIFailure, Message: msg, Err: err}
}

func Server(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeServerError, Message: "Server error", Err: err}
}

// As unwraps err into an *Error, wrapping anything else as a server error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Server(err)
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
