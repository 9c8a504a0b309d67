package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware tags each request with an id (reusing an incoming
// X-Request-ID) and logs one line per request once the handler chain returns.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestId", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		user := Username(c)
		if user == "" {
			user = "-"
		}
		log.Printf("request_id=%s method=%s path=%s status=%d latency=%s user=%s",
			requestID, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), user)
	}
}
