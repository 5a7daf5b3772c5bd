package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/juliasaboya/ScheduleEngine/internal/handler"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/service"
)

type catalogStub struct {
	items []models.Activity
}

func (s *catalogStub) ListActive(context.Context) ([]models.Activity, error) {
	return s.items, nil
}

func (s *catalogStub) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Activity, error) {
	var out []models.Activity
	for _, item := range s.items {
		for _, id := range ids {
			if item.ID == id {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (s *catalogStub) List(context.Context, models.ActivityFilter) ([]models.Activity, int, error) {
	return s.items, len(s.items), nil
}

func (s *catalogStub) Upsert(_ context.Context, activity *models.Activity) error {
	s.items = append(s.items, *activity)
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *service.MetricsService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	catalog := &catalogStub{items: []models.Activity{
		{ID: uuid.New(), Name: "Walk", MinMinutes: 10, MaxMinutes: 40, GoalTags: models.TagList{"cardio"}, Active: true},
	}}
	metrics := service.NewMetricsService()
	auth := service.NewAuthService(nil, nil, service.AuthConfig{
		AccessTokenSecret: "router-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "schedule-engine",
		ClientID:          "planner-ui",
		ClientSecretHash:  string(hash),
		ClientRole:        models.RolePlanner,
	})
	planner := service.NewPlannerService(catalog, nil, nil, metrics, nil, nil, service.PlannerConfig{DefaultTimezone: "UTC"})

	engine := NewEngine(RouterConfig{APIPrefix: "/api/v1/"}, Handlers{
		Planner:  handler.NewPlannerHandler(planner),
		Activity: handler.NewActivityHandler(service.NewActivityService(catalog, nil, nil)),
		Auth:     handler.NewAuthHandler(auth),
		Metrics:  handler.NewMetricsHandler(metrics, nil),
	}, auth, metrics, nil)
	return Instrument(engine, ""), metrics
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func issueToken(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"clientId": "planner-ui", "clientSecret": "s3cret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

var dailyPayload = map[string]interface{}{
	"date":  "2024-03-04",
	"slots": []map[string]string{{"start": "2024-03-04T09:00:00Z", "end": "2024-03-04T09:30:00Z"}},
	"goals": []string{"cardio"},
}

func TestRouterProbes(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/docs/index.html", "", nil).Code)
}

func TestRouterRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/v1/plans/daily", "", dailyPayload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"clientId": "planner-ui", "clientSecret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterPlannerFlow(t *testing.T) {
	h, metrics := newTestRouter(t)
	token := issueToken(t, h)

	w := do(t, h, http.MethodPost, "/api/v1/plans/daily", token, dailyPayload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"activityName":"Walk"`)

	w = do(t, h, http.MethodGet, "/api/v1/activities", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/activities", token, map[string]interface{}{"name": "Swim", "minDuration": 20, "maxDuration": 45})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/plans/weekly/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	scrape := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), `path="/api/v1/plans/daily"`)
	assert.NotNil(t, metrics.Registry())
}

func TestRouterExportRoutesOptional(t *testing.T) {
	h, _ := newTestRouter(t)
	token := issueToken(t, h)

	w := do(t, h, http.MethodPost, "/api/v1/plans/weekly/p-1/exports", token, map[string]string{"format": "csv"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
