package middleware

import (
	"errors"
	"net/http"
	"strings"

	"boneage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token from the Authorization header
// and injects the session claims into the request context. Expired and
// otherwise invalid tokens get distinct messages.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Token expired")
			} else {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("hospitalID", claims.HospitalID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireAdmin checks if the authenticated user has admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if role != "admin" {
			utils.ErrorResponse(c, http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
