package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/response"
)

type plannerService interface {
	GenerateDaily(ctx context.Context, req dto.DailyPlanRequest) (*dto.DailyPlanResponse, error)
	BuildWeekly(ctx context.Context, req dto.WeeklyPlanRequest, actor string) (*dto.WeeklyPlanResponse, error)
	GetWeekly(ctx context.Context, id string) (*dto.WeeklyPlanResponse, error)
	RecalculateDay(ctx context.Context, id string, req dto.RecalculateDayRequest) (*dto.RecalculateDayResponse, error)
}

// PlannerHandler exposes the scheduling engine.
type PlannerHandler struct {
	service plannerService
}

// NewPlannerHandler constructs the handler.
func NewPlannerHandler(svc plannerService) *PlannerHandler {
	return &PlannerHandler{service: svc}
}

// GenerateDaily godoc
// @Summary Plan a single day
// @Description Greedily assigns catalog activities to the given slots within the daily budget
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.DailyPlanRequest true "Day, slots and preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /plans/daily [post]
func (h *PlannerHandler) GenerateDaily(c *gin.Context) {
	var req dto.DailyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid daily plan payload"))
		return
	}
	plan, err := h.service.GenerateDaily(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// BuildWeekly godoc
// @Summary Build a weekly proposal
// @Description Solves the template day and replicates it across the date window. endDate is exclusive.
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.WeeklyPlanRequest true "Template day and window"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /plans/weekly [post]
func (h *PlannerHandler) BuildWeekly(c *gin.Context) {
	var req dto.WeeklyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid weekly plan payload"))
		return
	}
	proposal, err := h.service.BuildWeekly(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// GetWeekly godoc
// @Summary Get a weekly proposal
// @Tags Planner
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /plans/weekly/{id} [get]
func (h *PlannerHandler) GetWeekly(c *gin.Context) {
	proposal, err := h.service.GetWeekly(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, proposal)
}

// RecalculateDay godoc
// @Summary Recalculate one day of a proposal
// @Description Re-solves the day against newly available slots and may relocate it
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.RecalculateDayRequest true "Target day and availability"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /plans/weekly/{id}/recalculate [post]
func (h *PlannerHandler) RecalculateDay(c *gin.Context) {
	var req dto.RecalculateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid recalculation payload"))
		return
	}
	result, err := h.service.RecalculateDay(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
