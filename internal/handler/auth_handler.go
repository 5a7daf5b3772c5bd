package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/response"
)

type tokenIssuer interface {
	IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc tokenIssuer) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Token godoc
// @Summary Issue an access token
// @Description Exchange client credentials for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.TokenRequest true "Client credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid token request"))
		return
	}
	res, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
