package apperr

import (
  "errors"
  "fmt"
  "net/http"
)

// Code is a stable, machine-readable failure category returned to API
// clients alongside the human-readable message.
type Code string

const (
  CodeValidation        Code = "validation"
  CodeUnauthorized      Code = "unauthorized"
  CodeForbidden         Code = "forbidden"
  CodeNotFound          Code = "not_found"
  CodeBusy              Code = "busy"
  CodeGatewayError      Code = "gateway_error"
  CodeLoopBoundExceeded Code = "loop_bound_exceeded"
  CodeInternal          Code = "internal"
)

type Error struct {
  Code    Code
  Message string
  Err     error
}

func (e *Error) Error() string {
  if e.Err != nil {
    return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
  }
  return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
  return e.Err
}

func New(code Code, message string) *Error {
  return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
  return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
  return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from err, or CodeInternal when err
// is not an *Error.
func CodeOf(err error) Code {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Code
  }
  return CodeInternal
}

// MessageOf returns the client-facing message for err. Wrapped causes
// are deliberately not exposed.
func MessageOf(err error) string {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Message
  }
  return "internal server error"
}

// HTTPStatus maps a taxonomy code to the response status the handlers
// use.
func HTTPStatus(err error) int {
  switch CodeOf(err) {
  case CodeValidation:
    return http.StatusBadRequest
  case CodeUnauthorized:
    return http.StatusUnauthorized
  case CodeForbidden:
    return http.StatusForbidden
  case CodeNotFound:
    return http.StatusNotFound
  case CodeBusy:
    return http.StatusConflict
  case CodeGatewayError:
    return http.StatusBadGateway
  case CodeLoopBoundExceeded:
    return http.StatusBadGateway
  default:
    return http.StatusInternalServerError
  }
}

func IsCode(err error, code Code) bool {
  return CodeOf(err) == code
}
