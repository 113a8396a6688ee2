package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// formOverhead leaves room for multipart boundaries and the text fields that
// travel next to an upload.
const formOverhead = 64 << 10

// LimitBody caps the request body at limit bytes of payload. Reads past the cap
// fail with *http.MaxBytesError.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
		}
		c.Next()
	}
}
