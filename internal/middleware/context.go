package middleware

import (
  "github.com/gin-gonic/gin"

  "github.com/haven-labs/haven-backend/internal/errordata"
)

// AttachErrorData gives every request an error-note collector so services
// can record non-fatal degradations for the handler to log.
func AttachErrorData() gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := errordata.WithErrorData(c.Request.Context())
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}
