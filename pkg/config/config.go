package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported catalog database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Supported export storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
	Exports  ExportsConfig
	S3       S3Config
	Tracing  TracingConfig
	NATS     NATSConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Addr returns the host:port pair of the Redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// AuthConfig holds the single machine client allowed to request tokens.
type AuthConfig struct {
	ClientID         string
	ClientSecretHash string
	ClientRole       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig holds the defaults applied to planning requests.
type PlannerConfig struct {
	ProposalTTL            time.Duration
	DefaultTimezone        string
	DailyMinimumMinutes    int
	DailyMaximumMinutes    int
	AvoidConsecutiveRepeat bool
	LocationMatchBonus     int
	DaysToPlan             int
	ExcludedHandling       string
}

// ExportsConfig configures asynchronous plan exports.
type ExportsConfig struct {
	Enabled           bool
	Storage           string
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// S3Config points exports at an S3 compatible bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRate  float64
}

// NATSConfig controls plan event publishing.
type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		Path:         v.GetString("DB_PATH"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
	}

	cfg.Auth = AuthConfig{
		ClientID:         v.GetString("AUTH_CLIENT_ID"),
		ClientSecretHash: v.GetString("AUTH_CLIENT_SECRET_HASH"),
		ClientRole:       strings.ToUpper(v.GetString("AUTH_CLIENT_ROLE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		ProposalTTL:            parseDuration(v.GetString("PLANNER_PROPOSAL_TTL"), 24*time.Hour),
		DefaultTimezone:        v.GetString("PLANNER_DEFAULT_TIMEZONE"),
		DailyMinimumMinutes:    v.GetInt("PLANNER_DAILY_MIN_MINUTES"),
		DailyMaximumMinutes:    v.GetInt("PLANNER_DAILY_MAX_MINUTES"),
		AvoidConsecutiveRepeat: v.GetBool("PLANNER_AVOID_CONSECUTIVE_REPEAT"),
		LocationMatchBonus:     v.GetInt("PLANNER_LOCATION_MATCH_BONUS"),
		DaysToPlan:             v.GetInt("PLANNER_DAYS_TO_PLAN"),
		ExcludedHandling:       v.GetString("PLANNER_EXCLUDED_HANDLING"),
	}
	if _, err := time.LoadLocation(cfg.Planner.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid PLANNER_DEFAULT_TIMEZONE: %w", err)
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		Storage:           strings.ToLower(v.GetString("EXPORTS_STORAGE")),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.S3 = S3Config{
		Bucket:          v.GetString("S3_BUCKET"),
		Region:          v.GetString("S3_REGION"),
		Endpoint:        v.GetString("S3_ENDPOINT"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		Prefix:          v.GetString("S3_PREFIX"),
		UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
	}
	if cfg.Exports.Enabled && cfg.Exports.Storage == StorageS3 && cfg.S3.Bucket == "" {
		return nil, errors.New("S3_BUCKET is required when EXPORTS_STORAGE=s3")
	}

	cfg.Tracing = TracingConfig{
		Enabled:     v.GetBool("TRACING_ENABLED"),
		Endpoint:    v.GetString("TRACING_OTLP_ENDPOINT"),
		ServiceName: v.GetString("TRACING_SERVICE_NAME"),
		SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
	}

	cfg.NATS = NATSConfig{
		Enabled:       v.GetBool("NATS_ENABLED"),
		URL:           v.GetString("NATS_URL"),
		SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schedule_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "./schedule_engine.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "schedule-engine")
	v.SetDefault("JWT_EXPIRATION", "1h")

	v.SetDefault("AUTH_CLIENT_ID", "planner-dev")
	v.SetDefault("AUTH_CLIENT_SECRET_HASH", "")
	v.SetDefault("AUTH_CLIENT_ROLE", "PLANNER")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_PROPOSAL_TTL", "24h")
	v.SetDefault("PLANNER_DEFAULT_TIMEZONE", "UTC")
	v.SetDefault("PLANNER_DAILY_MIN_MINUTES", 30)
	v.SetDefault("PLANNER_DAILY_MAX_MINUTES", 50)
	v.SetDefault("PLANNER_AVOID_CONSECUTIVE_REPEAT", true)
	v.SetDefault("PLANNER_LOCATION_MATCH_BONUS", 0)
	v.SetDefault("PLANNER_DAYS_TO_PLAN", 4)
	v.SetDefault("PLANNER_EXCLUDED_HANDLING", "auto")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE", StorageLocal)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_PREFIX", "exports/")
	v.SetDefault("S3_USE_PATH_STYLE", false)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("TRACING_SERVICE_NAME", "schedule-engine")
	v.SetDefault("TRACING_SAMPLE_RATE", 1.0)

	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("NATS_URL", "nats://127.0.0.1:4222")
	v.SetDefault("NATS_SUBJECT_PREFIX", "planner")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
