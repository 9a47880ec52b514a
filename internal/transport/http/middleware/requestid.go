package middleware

import (
	"github.com/ErlanBelekov/timer-trigger/internal/requestid"
	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// RequestID keeps a caller-supplied X-Request-ID when it is well formed and
// mints one otherwise. The id lands in the request context, where the log
// handler picks it up, and is echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !requestid.Valid(id) {
			id = requestid.New()
		}

		c.Request = c.Request.WithContext(requestid.WithRequestID(c.Request.Context(), id))
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
