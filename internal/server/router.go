package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/juliasaboya/ScheduleEngine/api/swagger"
	"github.com/juliasaboya/ScheduleEngine/internal/handler"
	internalmiddleware "github.com/juliasaboya/ScheduleEngine/internal/middleware"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/service"
	"github.com/juliasaboya/ScheduleEngine/pkg/logger"
	corsmiddleware "github.com/juliasaboya/ScheduleEngine/pkg/middleware/cors"
	reqidmiddleware "github.com/juliasaboya/ScheduleEngine/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router. Export is
// optional; its routes are skipped when exports are disabled.
type Handlers struct {
	Planner  *handler.PlannerHandler
	Activity *handler.ActivityHandler
	Export   *handler.ExportHandler
	Auth     *handler.AuthHandler
	Metrics  *handler.MetricsHandler
}

// RouterConfig controls route registration.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	ServiceName    string
}

// NewEngine registers middleware and every route on a fresh gin engine.
func NewEngine(cfg RouterConfig, h Handlers, tokens internalmiddleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	if metrics != nil {
		r.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.POST("/auth/token", h.Auth.Token)
	if h.Export != nil {
		api.GET("/exports/download/:token", h.Export.Download)
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokens))

	viewer := internalmiddleware.RequireRoles(models.RoleViewer, models.RolePlanner)
	planner := internalmiddleware.RequireRoles(models.RolePlanner)
	admin := internalmiddleware.RequireRoles(models.RoleAdmin)

	secured.GET("/activities", viewer, h.Activity.List)
	secured.POST("/activities", admin, h.Activity.Create)

	plans := secured.Group("/plans")
	plans.POST("/daily", planner, h.Planner.GenerateDaily)
	plans.POST("/weekly", planner, h.Planner.BuildWeekly)
	plans.GET("/weekly/:id", viewer, h.Planner.GetWeekly)
	plans.POST("/weekly/:id/recalculate", planner, h.Planner.RecalculateDay)

	if h.Export != nil {
		plans.POST("/weekly/:id/exports", planner, h.Export.CreateExport)
		secured.GET("/exports/:id", viewer, h.Export.ExportStatus)
	}

	return r
}

// Instrument wraps the engine so every request starts a server span.
func Instrument(engine http.Handler, serviceName string) http.Handler {
	if serviceName == "" {
		serviceName = "schedule-engine"
	}
	return otelhttp.NewHandler(engine, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
