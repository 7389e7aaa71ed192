package middleware

import (
	"net/http"
	"ridehailgo/internal/services/identity"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userKey  = "auth_user"
	tokenKey = "auth_token"
)

// TokenAuth requires a valid "Authorization: Token <token>" header and stashes
// the resolved user on the gin context.
func TokenAuth(identitySvc identity.IIdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Token ")
		if token == "" || token == c.GetHeader("Authorization") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		user, err := identitySvc.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func UserFrom(c *gin.Context) *identity.UserDTO {
	if v, ok := c.Get(userKey); ok {
		return v.(*identity.UserDTO)
	}
	return nil
}

func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}
