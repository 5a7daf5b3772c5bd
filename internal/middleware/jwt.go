package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/response"
)

// ContextClientKey is the gin context key storing JWT claims.
const ContextClientKey = "currentClient"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextClientKey, claims)
		c.Next()
	}
}

// CurrentClient returns the claims attached by JWT.
func CurrentClient(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextClientKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
