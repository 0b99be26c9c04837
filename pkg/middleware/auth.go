package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionUserKey is the session field holding the authenticated user id.
	SessionUserKey = "user_id"
	// ContextUserIDKey is where RequireLogin parks the id for handlers.
	ContextUserIDKey = "auth_user_id"
)

// RequireLogin rejects unauthenticated requests and exposes the owner id on
// the gin context for everything downstream.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		v := sess.Get(SessionUserKey)
		uid, ok := v.(uint)
		if !ok || uid == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Set(ContextUserIDKey, uid)
		c.Next()
	}
}

// UserID returns the authenticated owner id, zero when not logged in.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}
