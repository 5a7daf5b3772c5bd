package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/internal/handler"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/repository"
	"github.com/juliasaboya/ScheduleEngine/internal/server"
	"github.com/juliasaboya/ScheduleEngine/internal/service"
	"github.com/juliasaboya/ScheduleEngine/pkg/cache"
	"github.com/juliasaboya/ScheduleEngine/pkg/config"
	"github.com/juliasaboya/ScheduleEngine/pkg/database"
	"github.com/juliasaboya/ScheduleEngine/pkg/events"
	"github.com/juliasaboya/ScheduleEngine/pkg/jobs"
	"github.com/juliasaboya/ScheduleEngine/pkg/logger"
	"github.com/juliasaboya/ScheduleEngine/pkg/storage"
	"github.com/juliasaboya/ScheduleEngine/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the export worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, cmd.Root().Version, logr)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, version string, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	tracing, err := telemetry.Init(ctx, cfg.Tracing, version, logr)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("connect redis: %w", err)
	}

	publisher, err := events.Connect(cfg.NATS, logr)
	if err != nil {
		_ = db.Close()
		return err
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.Pinger{"database": db}

	var cacheSvc *service.CacheService
	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Planner.ProposalTTL, logr, true)
		checks["cache"] = handler.PingFunc(cacheRepo.Ping)
	}

	activityRepo := repository.NewActivityRepository(db)
	planner := service.NewPlannerService(
		activityRepo,
		service.NewProposalStore(cacheSvc, cfg.Planner.ProposalTTL),
		publisher,
		metrics,
		validate,
		logr,
		service.PlannerConfigFrom(cfg.Planner),
	)
	auth := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		ClientID:          cfg.Auth.ClientID,
		ClientSecretHash:  cfg.Auth.ClientSecretHash,
		ClientRole:        models.ClientRole(cfg.Auth.ClientRole),
	})

	handlers := server.Handlers{
		Planner:  handler.NewPlannerHandler(planner),
		Activity: handler.NewActivityHandler(service.NewActivityService(activityRepo, validate, logr)),
		Auth:     handler.NewAuthHandler(auth),
		Metrics:  handler.NewMetricsHandler(metrics, checks),
	}

	var queue *jobs.Queue
	if cfg.Exports.Enabled {
		exportSvc, q, err := startExports(ctx, cfg, db, planner, metrics, validate, logr)
		if err != nil {
			_ = publisher.Close()
			_ = db.Close()
			return err
		}
		queue = q
		handlers.Export = handler.NewExportHandler(exportSvc)
	}

	engine := server.NewEngine(server.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		ServiceName:    cfg.Tracing.ServiceName,
	}, handlers, auth, metrics, logr)

	srv := server.New(cfg.Port, server.Instrument(engine, cfg.Tracing.ServiceName), logr)
	srv.OnShutdown(func(context.Context) error { return db.Close() })
	if cacheRepo != nil {
		srv.OnShutdown(func(context.Context) error { return cacheRepo.Close() })
	}
	srv.OnShutdown(func(context.Context) error { return publisher.Close() })
	srv.OnShutdown(tracing.Shutdown)
	if queue != nil {
		srv.OnShutdown(func(context.Context) error {
			queue.Stop()
			return nil
		})
	}

	logr.Info("planner api configured",
		zap.String("env", cfg.Env),
		zap.String("version", version),
		zap.Bool("exports", cfg.Exports.Enabled),
		zap.Bool("redis", redisClient != nil),
	)
	return srv.Run(ctx)
}

func startExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	planner *service.PlannerService,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
) (*service.ExportService, *jobs.Queue, error) {
	store, err := storage.New(ctx, cfg.Exports, cfg.S3)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}

	exportRepo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(exportRepo, planner, store, metrics, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		OnFailure:  worker.Fail,
		Logger:     logr,
	})
	queue.Start(ctx)

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	svc := service.NewExportService(exportRepo, planner, queue, store, signer, validate, logr, service.ExportConfig{APIPrefix: cfg.APIPrefix})
	svc.RecoverPendingJobs(ctx)
	return svc, queue, nil
}
