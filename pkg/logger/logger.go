package logger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/juliasaboya/ScheduleEngine/pkg/config"
	"github.com/juliasaboya/ScheduleEngine/pkg/middleware/requestid"
)

// New builds the process logger from configuration. Production uses
// sampled JSON at info; other environments log at debug with caller info.
// An unknown LOG_LEVEL is reported rather than silently ignored.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Encoding = encoding(cfg.Log.Format)
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{
		"service": cfg.Tracing.ServiceName,
		"env":     cfg.Env,
	}
	return zapCfg.Build()
}

func encoding(format string) string {
	if format == "console" {
		return "console"
	}
	return "json"
}

// WithTrace decorates l with the ids of the span active in ctx, if any.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// GinMiddleware writes one access log line per request. Client errors log at
// warn level and server errors at error level.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		entry := WithTrace(c.Request.Context(), l)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			entry.Warn("http_request", fields...)
		default:
			entry.Info("http_request", fields...)
		}
	}
}
