package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/middleware"
)

// actorFromContext names the machine client behind the request, or "" on
// routes that skip authentication.
func actorFromContext(c *gin.Context) string {
	if claims, ok := middleware.CurrentClient(c); ok && claims != nil {
		return claims.ClientID
	}
	return ""
}
