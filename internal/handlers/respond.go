package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
)

// respondError maps a service error to its HTTP status and a stable
// machine-readable code alongside the message.
func respondError(c *gin.Context, err error) {
  c.JSON(apperr.HTTPStatus(err), gin.H{
    "error": apperr.MessageOf(err),
    "code":  string(apperr.CodeOf(err)),
  })
}
