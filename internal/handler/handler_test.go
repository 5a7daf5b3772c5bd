package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/service"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

type activityServiceMock struct {
	items     []models.Activity
	page      *models.Pagination
	created   *models.Activity
	err       error
	lastQuery dto.ListActivitiesQuery
}

func (m *activityServiceMock) List(_ context.Context, query dto.ListActivitiesQuery) ([]models.Activity, *models.Pagination, error) {
	m.lastQuery = query
	return m.items, m.page, m.err
}

func (m *activityServiceMock) Create(context.Context, dto.CreateActivityRequest) (*models.Activity, error) {
	return m.created, m.err
}

type tokenIssuerMock struct {
	resp *dto.TokenResponse
	err  error
}

func (m tokenIssuerMock) IssueToken(context.Context, dto.TokenRequest) (*dto.TokenResponse, error) {
	return m.resp, m.err
}

func TestActivityHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &activityServiceMock{
		items: []models.Activity{{ID: uuid.New(), Name: "Walk"}},
		page:  &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	handler := NewActivityHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/activities?goal=cardio&active=false&page=2&pageSize=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cardio", mockSvc.lastQuery.Goal)
	require.NotNil(t, mockSvc.lastQuery.ActiveOnly)
	assert.False(t, *mockSvc.lastQuery.ActiveOnly)
	assert.Contains(t, w.Body.String(), `"total_count":11`)
}

func TestActivityHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewActivityHandler(&activityServiceMock{created: &models.Activity{ID: uuid.New(), Name: "Yoga"}})

	c, w := newGinContext(http.MethodPost, "/activities", []byte(`{"name":"Yoga","minDuration":10,"maxDuration":20}`))
	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	handler = NewActivityHandler(&activityServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "invalid activity payload")})
	c, w = newGinContext(http.MethodPost, "/activities", []byte(`{"name":""}`))
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(tokenIssuerMock{resp: &dto.TokenResponse{AccessToken: "abc", TokenType: "Bearer", ExpiresIn: 3600}})

	c, w := newGinContext(http.MethodPost, "/auth/token", []byte(`{"clientId":"ui","clientSecret":"pw"}`))
	handler.Token(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accessToken":"abc"`)

	handler = NewAuthHandler(tokenIssuerMock{err: appErrors.ErrInvalidCredentials})
	c, w = newGinContext(http.MethodPost, "/auth/token", []byte(`{"clientId":"ui","clientSecret":"bad"}`))
	handler.Token(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return nil }),
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	degraded := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return nil }),
		"cache":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	degraded.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.RecordPlan("daily", 30, true)
	handler := NewMetricsHandler(metrics, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planner_plans_generated_total")

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(nil, nil).Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
