package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request ID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored by TracingMiddleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// TracingMiddleware copies the request ID into the request context so that code
// below the handlers, which only sees a context.Context, can correlate its work.
// It must run after RequestIDMiddleware.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestID := c.GetString("request_id"); requestID != "" {
			c.Request = c.Request.WithContext(ContextWithRequestID(c.Request.Context(), requestID))
		}
		c.Next()
	}
}
