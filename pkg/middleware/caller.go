package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Key type so the context value cannot collide with other packages.
type callerKey struct{}

var CallerContextKey = callerKey{}

const CallerHeader = "X-Caller-Address"

// Caller copies the caller address header into the request context. Every
// mutating campaign operation resolves its caller through this value; there is
// no ambient identity.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.GetHeader(CallerHeader)
		if addr != "" {
			ctx := context.WithValue(c.Request.Context(), CallerContextKey, addr)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// CallerFrom returns the caller address recorded in ctx, or "" when the
// request carried none.
func CallerFrom(ctx context.Context) string {
	addr, ok := ctx.Value(CallerContextKey).(string)
	if !ok {
		return ""
	}
	return addr
}
