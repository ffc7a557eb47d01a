package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Binding a larger body fails and the
// handler answers 400; no handler reads past the cap.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10007, "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
