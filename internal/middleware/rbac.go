package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/response"
)

// RequireRoles lets a request through when the client holds one of roles.
// Admins are always allowed.
func RequireRoles(roles ...models.ClientRole) gin.HandlerFunc {
	allowed := make(map[models.ClientRole]struct{}, len(roles)+1)
	allowed[models.RoleAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClient(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
