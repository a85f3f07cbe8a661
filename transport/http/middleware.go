package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/service"
)

const contextKeyIdentity = "tokenIdentity"

// AuthMiddleware validates bearer access tokens and rejects tokens whose
// session has been ended.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")

		identity, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			if err == core.ErrTokenExpired {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(contextKeyIdentity, identity)
		c.Next()
	}
}

func identityFromContext(c *gin.Context) *core.TokenIdentity {
	value, exists := c.Get(contextKeyIdentity)
	if !exists {
		return nil
	}
	identity, ok := value.(*core.TokenIdentity)
	if !ok {
		return nil
	}
	return identity
}
