package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID holds the id of the user making the request.
	ContextKeyUserID = "user_id"

	actorHeader = "X-User-ID"
)

// Actor records the caller's user id from the X-User-ID header set by the
// upstream admin gateway. Requests without the header are anonymous.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(actorHeader)); id != "" {
			c.Set(ContextKeyUserID, id)
		}
		c.Next()
	}
}

// UserID returns the caller's user id, or nil for anonymous requests.
func UserID(c *gin.Context) *string {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return nil
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
