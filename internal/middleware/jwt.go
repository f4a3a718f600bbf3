package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dvega/docuvec/internal/pkg/jwt"
)

const (
	ContextUserIDKey = "user_id"
	ContextOrgIDKey  = "org_id"
)

// JWTAuth resolves the caller's identity and organization from a bearer
// token issued by the identity collaborator. Tenant-scoped handlers
// additionally require the organization claim; this middleware only
// validates and attaches what the token carries.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		if claims.OrgID != "" {
			c.Set(ContextOrgIDKey, claims.OrgID)
		}
		c.Next()
	}
}
