package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/permission"
	"reviewhub/internal/httpapi/repository"
	"reviewhub/internal/httpapi/service"
)

const currentUserKey = "currentUser"

// Authenticate resolves the caller from the Authorization header and stores
// it in the request context. With required=false a missing header leaves the
// request anonymous; a present-but-invalid token always answers 401. The user
// row is re-read on every request so role changes take effect immediately and
// deleted users lose access.
func Authenticate(authService service.AuthService, userRepo repository.UserRepository, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentIdentity returns the caller identity; anonymous when the request
// carried no valid token.
func CurrentIdentity(c *gin.Context) permission.Identity {
	if v, exists := c.Get(currentUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return permission.Identity{User: user}
		}
	}
	return permission.Anonymous
}
