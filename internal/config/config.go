package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

type EnforcementMode string

const (
	EnforcementSweep  EnforcementMode = "sweep"
	EnforcementInline EnforcementMode = "inline"
)

// Thresholds holds the active-report count at which each target type is banned.
type Thresholds struct {
	Post    int
	Comment int
	User    int
}

type Config struct {
	Environment Environment
	HTTPAddr    string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AMQPURL       string
	AMQPExchange  string

	AuthPrivateKeyPath string
	AuthPublicKeyPath  string
	AuthTokenTTL       time.Duration
	EmailTokenTTL      time.Duration
	SessionCacheTTL    time.Duration
	TokenIssuer        string

	EmailWhitelistDomains []string
	ModeratorUserIDs      []string

	ModerationThresholds Thresholds
	EnforcementMode      EnforcementMode
	SweepInterval        time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64

	ShutdownTimeout time.Duration
}

// Load reads APP_ENV, merges .env.<environment> underneath the process
// environment, and validates the result.
func Load() (*Config, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", string(EnvDevelopment)))))
	cfg, err := load(env)
	recordConfigLoad(context.Background(), env, err)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(env Environment) (*Config, error) {
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("%w: APP_ENV must be development or production, got %q", ErrInvalidConfig, env)
	}
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(".env." + string(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env.%s: %w", env, err)
	}

	d := defaultsFor(env)
	cfg := &Config{
		Environment:              env,
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		AMQPURL:                  getEnv("AMQP_URL", ""),
		AMQPExchange:             getEnv("AMQP_EXCHANGE", "moderation"),
		AuthPrivateKeyPath:       getEnv("AUTH_PRIVATE_KEY_PATH", "keys/auth_private.pem"),
		AuthPublicKeyPath:        getEnv("AUTH_PUBLIC_KEY_PATH", "keys/auth_public.pem"),
		TokenIssuer:              getEnv("TOKEN_ISSUER", "social-trust-core"),
		EnforcementMode:          EnforcementMode(strings.ToLower(getEnv("MODERATION_ENFORCEMENT_MODE", string(EnforcementSweep)))),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "social-trust-core"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", string(env)),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		EmailWhitelistDomains:    splitList(getEnv("EMAIL_WHITELIST_DOMAINS", d.whitelist)),
		ModeratorUserIDs:         splitList(getEnv("MODERATOR_USER_IDS", "")),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AuthTokenTTL, err = getDuration("AUTH_TOKEN_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.EmailTokenTTL, err = getDuration("EMAIL_TOKEN_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionCacheTTL, err = getDuration("SESSION_CACHE_TTL", 168*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("MODERATION_SWEEP_INTERVAL", d.sweepInterval); err != nil {
		return nil, err
	}
	if cfg.ModerationThresholds.Post, err = getInt("MODERATION_THRESHOLD_POST", d.thresholds.Post); err != nil {
		return nil, err
	}
	if cfg.ModerationThresholds.Comment, err = getInt("MODERATION_THRESHOLD_COMMENT", d.thresholds.Comment); err != nil {
		return nil, err
	}
	if cfg.ModerationThresholds.User, err = getInt("MODERATION_THRESHOLD_USER", d.thresholds.User); err != nil {
		return nil, err
	}
	if cfg.OTELExporterOTLPInsecure, err = getBool("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsEnabled, err = getBool("OTEL_METRICS_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.OTELTracingEnabled, err = getBool("OTEL_TRACING_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.OTELLogsEnabled, err = getBool("OTEL_LOGS_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsExportInterval, err = getDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.OTELTraceSamplingRatio, err = getFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.AuthPrivateKeyPath == "" || c.AuthPublicKeyPath == "" {
		problems = append(problems, "AUTH_PRIVATE_KEY_PATH and AUTH_PUBLIC_KEY_PATH are required")
	}
	if c.AuthTokenTTL <= 0 || c.EmailTokenTTL <= 0 {
		problems = append(problems, "token TTLs must be positive")
	}
	if c.SessionCacheTTL < 0 {
		problems = append(problems, "SESSION_CACHE_TTL must not be negative")
	}
	if c.ModerationThresholds.Post < 1 || c.ModerationThresholds.Comment < 1 || c.ModerationThresholds.User < 1 {
		problems = append(problems, "moderation thresholds must be at least 1")
	}
	switch c.EnforcementMode {
	case EnforcementSweep:
		if c.SweepInterval <= 0 {
			problems = append(problems, "MODERATION_SWEEP_INTERVAL must be positive in sweep mode")
		}
	case EnforcementInline:
	default:
		problems = append(problems, fmt.Sprintf("MODERATION_ENFORCEMENT_MODE must be sweep or inline, got %q", c.EnforcementMode))
	}
	if c.Environment == EnvProduction && len(c.EmailWhitelistDomains) > 0 {
		problems = append(problems, "EMAIL_WHITELIST_DOMAINS must be empty in production")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		problems = append(problems, "OTEL_TRACE_SAMPLING_RATIO must be within [0,1]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

type envDefaults struct {
	thresholds    Thresholds
	sweepInterval time.Duration
	whitelist     string
}

func defaultsFor(env Environment) envDefaults {
	switch env {
	case EnvProduction:
		return envDefaults{
			thresholds:    Thresholds{Post: 2000, Comment: 1000, User: 1000},
			sweepInterval: 12 * time.Hour,
		}
	case EnvDevelopment:
		return envDefaults{
			thresholds:    Thresholds{Post: 2, Comment: 2, User: 2},
			sweepInterval: 10 * time.Minute,
			whitelist:     "example.com,test.com",
		}
	}
	return envDefaults{}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{Key: key, Err: err}
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, &ParseError{Key: key, Err: err}
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ParseError{Key: key, Err: err}
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{Key: key, Err: err}
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.ToLower(strings.TrimSpace(part)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
