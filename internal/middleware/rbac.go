package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

// RequireRoles admits callers holding one of roles. SUPERADMIN is always admitted.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}
