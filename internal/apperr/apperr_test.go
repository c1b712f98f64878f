package apperr

import (
  "errors"
  "fmt"
  "net/http"
  "testing"

  "github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
  err := New(CodeNotFound, "task not found")
  assert.Equal(t, CodeNotFound, CodeOf(err))

  wrapped := fmt.Errorf("outer: %w", err)
  assert.Equal(t, CodeNotFound, CodeOf(wrapped))

  assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestMessageOfHidesCauses(t *testing.T) {
  cause := errors.New("dial tcp: connection refused")
  err := Wrap(CodeGatewayError, "language model call failed", cause)
  assert.Equal(t, "language model call failed", MessageOf(err))
  assert.ErrorIs(t, err, cause)

  assert.Equal(t, "internal server error", MessageOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
  cases := map[Code]int{
    CodeValidation:        http.StatusBadRequest,
    CodeUnauthorized:      http.StatusUnauthorized,
    CodeForbidden:         http.StatusForbidden,
    CodeNotFound:          http.StatusNotFound,
    CodeBusy:              http.StatusConflict,
    CodeGatewayError:      http.StatusBadGateway,
    CodeLoopBoundExceeded: http.StatusBadGateway,
    CodeInternal:          http.StatusInternalServerError,
  }
  for code, want := range cases {
    assert.Equal(t, want, HTTPStatus(New(code, "x")), "code %s", code)
  }
  assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestIsCode(t *testing.T) {
  err := Newf(CodeBusy, "conversation %s is busy", "abc")
  assert.True(t, IsCode(err, CodeBusy))
  assert.False(t, IsCode(err, CodeNotFound))
  assert.Equal(t, "busy: conversation abc is busy", err.Error())
}
