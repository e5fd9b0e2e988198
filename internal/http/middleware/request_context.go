package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
)

// AttachRequestContext seeds every request with an SSE buffer. Services
// queue realtime messages there and handlers flush them only after the
// operation succeeds.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithSSEData(c.Request.Context()))
		c.Next()
	}
}
