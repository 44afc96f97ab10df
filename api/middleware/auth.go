package middleware

import (
	"net/http"
	"strings"

	"downtodine/services"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// Auth resolves the caller's identity from the Authorization header and
// stores it under "user_id". Handlers never touch the token themselves.
func Auth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		userID, err := tokens.Verify(authHeader[len(bearerPrefix):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// CallerID reads the identity Auth stored on the context.
func CallerID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}
