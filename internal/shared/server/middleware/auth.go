package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/shared/auth"
	"analysis-backend/internal/shared/server/respond"
)

const adminUserKey = "adminUser"

// AdminAuth validates the bearer token and stores the admin identity in
// context. Routes behind it require a logged-in dashboard admin.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(adminUserKey, claims.Sub)
		c.Next()
	}
}

// AdminFromContext fetches the admin username set by AdminAuth.
func AdminFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(adminUserKey)
	if username, ok := val.(string); ok {
		return username
	}
	return ""
}
