package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/response"
)

type activityService interface {
	List(ctx context.Context, query dto.ListActivitiesQuery) ([]models.Activity, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error)
}

// ActivityHandler manages the activity catalog.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List catalog activities
// @Tags Activities
// @Produce json
// @Param goal query string false "Goal tag"
// @Param active query bool false "Only active activities (default true)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var query dto.ListActivitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, pagination)
}

// Create godoc
// @Summary Add a catalog activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.CreateActivityRequest true "Activity"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid activity payload"))
		return
	}
	activity, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}
