package middleware

import (
	"crypto/subtle"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/printshop-manager/internal/constants"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
)

// SessionState is the back-office session the cookie token is checked against.
type SessionState interface {
	Current() (models.User, bool)
	Token() string
	ForcedLogoutReason() string
}

// RequireAuth checks that the cookie carries the token of the active session
func RequireAuth(state SessionState) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := sessions.Default(c).Get(constants.SessionKeyAuthToken).(string)
		user, ok := state.Current()
		active := state.Token()

		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(active)) != 1 {
			message := ""
			if token != "" {
				message = state.ForcedLogoutReason()
			}
			apierrors.Unauthorized(c, message)
			c.Abort()
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUserRole, user.Role)
		c.Next()
	}
}

// RequireAdmin allows only the Admin role. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(constants.ContextKeyUserRole)
		if role != models.RoleAdmin {
			apierrors.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin allows only the built-in administrator.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := GetUserID(c)
		if userID != constants.SuperUserID {
			apierrors.Forbidden(c, "Only the Super Admin can change settings")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}
