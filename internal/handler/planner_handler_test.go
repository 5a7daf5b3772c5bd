package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/middleware"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

type plannerServiceMock struct {
	daily      *dto.DailyPlanResponse
	weekly     *dto.WeeklyPlanResponse
	recalc     *dto.RecalculateDayResponse
	err        error
	lastActor  string
	lastID     string
	lastDaily  dto.DailyPlanRequest
	lastRecalc dto.RecalculateDayRequest
}

func (m *plannerServiceMock) GenerateDaily(_ context.Context, req dto.DailyPlanRequest) (*dto.DailyPlanResponse, error) {
	m.lastDaily = req
	return m.daily, m.err
}

func (m *plannerServiceMock) BuildWeekly(_ context.Context, _ dto.WeeklyPlanRequest, actor string) (*dto.WeeklyPlanResponse, error) {
	m.lastActor = actor
	return m.weekly, m.err
}

func (m *plannerServiceMock) GetWeekly(_ context.Context, id string) (*dto.WeeklyPlanResponse, error) {
	m.lastID = id
	return m.weekly, m.err
}

func (m *plannerServiceMock) RecalculateDay(_ context.Context, id string, req dto.RecalculateDayRequest) (*dto.RecalculateDayResponse, error) {
	m.lastID = id
	m.lastRecalc = req
	return m.recalc, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestPlannerHandlerGenerateDaily(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &plannerServiceMock{daily: &dto.DailyPlanResponse{Date: "2024-03-04", TotalMinutes: 30, MinimumMet: true}}
	handler := NewPlannerHandler(mockSvc)

	payload := []byte(`{"date":"2024-03-04","slots":[{"start":"2024-03-04T09:00:00Z","end":"2024-03-04T09:30:00Z"}],"goals":["cardio"]}`)
	c, w := newGinContext(http.MethodPost, "/plans/daily", payload)

	handler.GenerateDaily(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cardio"}, mockSvc.lastDaily.Goals)
	require.Len(t, mockSvc.lastDaily.Slots, 1)

	var data dto.DailyPlanResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["data"], &data))
	assert.Equal(t, 30, data.TotalMinutes)
}

func TestPlannerHandlerGenerateDailyErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, w := newGinContext(http.MethodPost, "/plans/daily", []byte(`{"date":`))
	NewPlannerHandler(&plannerServiceMock{}).GenerateDaily(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSvc := &plannerServiceMock{err: appErrors.Clone(appErrors.ErrEmptySlotSet, "no slots available on 2024-03-04")}
	c, w = newGinContext(http.MethodPost, "/plans/daily", []byte(`{"date":"2024-03-04"}`))
	NewPlannerHandler(mockSvc).GenerateDaily(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_SLOT_SET")
}

func TestPlannerHandlerBuildWeeklyUsesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &plannerServiceMock{weekly: &dto.WeeklyPlanResponse{ProposalID: "week-1", Version: 1}}
	handler := NewPlannerHandler(mockSvc)

	payload, _ := json.Marshal(dto.WeeklyPlanRequest{StartDate: "2024-03-04", EndDate: "2024-03-11"})
	c, w := newGinContext(http.MethodPost, "/plans/weekly", payload)
	c.Set(middleware.ContextClientKey, &models.JWTClaims{ClientID: "planner-ui", Role: models.RolePlanner})

	handler.BuildWeekly(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "planner-ui", mockSvc.lastActor)
}

func TestPlannerHandlerGetWeekly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &plannerServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}
	handler := NewPlannerHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/plans/weekly/week-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "week-9"}}

	handler.GetWeekly(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "week-9", mockSvc.lastID)
}

func TestPlannerHandlerRecalculateDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relocated := "2024-03-07"
	mockSvc := &plannerServiceMock{recalc: &dto.RecalculateDayResponse{Outcome: "relocated", RelocatedTo: &relocated}}
	handler := NewPlannerHandler(mockSvc)

	payload := []byte(`{"date":"2024-03-05","availableSlots":{"2024-03-07":[{"start":"2024-03-07T07:00:00Z","end":"2024-03-07T07:30:00Z"}]},"excludedHandling":"reschedule"}`)
	c, w := newGinContext(http.MethodPost, "/plans/weekly/week-1/recalculate", payload)
	c.Params = gin.Params{{Key: "id", Value: "week-1"}}

	handler.RecalculateDay(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "week-1", mockSvc.lastID)
	assert.Equal(t, "reschedule", mockSvc.lastRecalc.ExcludedHandling)
	assert.Len(t, mockSvc.lastRecalc.AvailableSlots["2024-03-07"], 1)
	assert.Contains(t, w.Body.String(), `"relocatedTo":"2024-03-07"`)
}
