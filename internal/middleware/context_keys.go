package middleware

import "github.com/gin-gonic/gin"

const (
	// userIDKey holds the authenticated user's ID in the request context.
	userIDKey = contextKey("userID")
	// userRoleKey holds the authenticated user's role.
	userRoleKey = contextKey("userRole")
)

// GetUserIDFromContext retrieves the authenticated user ID, checking the gin
// context map first and the request context second.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if val, exists := c.Get(string(userIDKey)); exists {
		userID, ok := val.(string)
		return userID, ok
	}
	if val := c.Request.Context().Value(userIDKey); val != nil {
		userID, ok := val.(string)
		return userID, ok
	}
	return "", false
}

// GetUserRoleFromContext retrieves the authenticated user's role.
func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if val := c.Request.Context().Value(userRoleKey); val != nil {
		role, ok := val.(string)
		return role, ok
	}
	return "", false
}
