package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/database"
	"github.com/sandeepkv93/social-trust-core/internal/http/handler"
	"github.com/sandeepkv93/social-trust-core/internal/http/router"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
	"github.com/sandeepkv93/social-trust-core/internal/security"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

// Core is the service graph shared by the HTTP server and the CLI.
type Core struct {
	Tokens       *service.TokenService
	Sessions     *service.SessionService
	Accounts     *service.AccountService
	Verification *service.VerificationService
	Reports      *service.ReportService
	Enforcer     *service.BanEnforcer
	Sweeper      *service.BanSweeper
}

// Readiness names the dependency probes served on /health/ready.
type Readiness map[string]router.ReadinessCheck

var InfraSet = wire.NewSet(
	provideDatabase,
	provideRedis,
)

var RepositorySet = wire.NewSet(
	repository.NewTransactor,
	wire.Bind(new(repository.Transactor), new(*repository.GormTransactor)),
	repository.NewUserRepository,
	repository.NewSessionRepository,
	repository.NewReportRepository,
	repository.NewContentRepository,
)

var ServiceSet = wire.NewSet(
	provideJWTManager,
	provideTokenConfig,
	provideSessionCache,
	provideRevokedSessions,
	provideSecretHasher,
	provideEventPublisher,
	provideMailer,
	service.NewTokenService,
	service.NewSessionService,
	service.NewAccountService,
	provideVerificationService,
	provideBanEnforcer,
	provideReportService,
	provideBanSweeper,
	wire.Struct(new(Core), "*"),
)

var CoreSet = wire.NewSet(RepositorySet, ServiceSet)

var HTTPSet = wire.NewSet(
	provideReadiness,
	NewHTTPHandler,
	provideHTTPServer,
)

func provideDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = sqlDB.Close() }
	if err := database.Migrate(db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config, logger *slog.Logger) (*redis.Client, func()) {
	client := database.NewRedisClient(cfg, logger)
	return client, func() {
		if client != nil {
			_ = client.Close()
		}
	}
}

func provideJWTManager(cfg *config.Config) (*security.JWTManager, error) {
	priv, pub, err := security.LoadRSAKeys(cfg.AuthPrivateKeyPath, cfg.AuthPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	return security.NewJWTManager(cfg.TokenIssuer, priv, pub), nil
}

func provideTokenConfig(cfg *config.Config) service.TokenConfig {
	return service.TokenConfig{
		AuthTTL:  cfg.AuthTokenTTL,
		EmailTTL: cfg.EmailTokenTTL,
		CacheTTL: cfg.SessionCacheTTL,
	}
}

// A nil client means redis is disabled; both session layers then degrade to
// no-ops and every verification reads the database.
func provideSessionCache(client *redis.Client) service.SessionCacheStore {
	if client == nil {
		return service.NewNoopSessionCacheStore()
	}
	return service.NewRedisSessionCacheStore(client, "")
}

func provideRevokedSessions(client *redis.Client) service.RevokedSessionStore {
	if client == nil {
		return service.NewNoopRevokedSessionStore()
	}
	return service.NewRedisRevokedSessionStore(client, "")
}

func provideSecretHasher() *security.SecretHasher {
	return security.NewSecretHasher(bcrypt.DefaultCost)
}

func provideEventPublisher(cfg *config.Config, logger *slog.Logger) (service.EventPublisher, func()) {
	if cfg.AMQPURL == "" {
		return service.NewNoopEventPublisher(), func() {}
	}
	publisher := service.NewAMQPEventPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	return publisher, func() { _ = publisher.Close() }
}

// Without a broker there is no mail relay, so codes are only logged as sent.
func provideMailer(cfg *config.Config, publisher service.EventPublisher, logger *slog.Logger) service.Mailer {
	if cfg.AMQPURL == "" {
		return service.NewLogMailer(logger)
	}
	return service.NewQueueMailer(publisher)
}

func provideVerificationService(cfg *config.Config, tokens *service.TokenService, hasher *security.SecretHasher, mailer service.Mailer, logger *slog.Logger) *service.VerificationService {
	return service.NewVerificationService(tokens, hasher, mailer, cfg.EmailWhitelistDomains, cfg.EmailTokenTTL, logger)
}

func provideBanEnforcer(
	cfg *config.Config,
	tx repository.Transactor,
	reportRepo repository.ReportRepository,
	contentRepo repository.ContentRepository,
	userRepo repository.UserRepository,
	sessions *service.SessionService,
	publisher service.EventPublisher,
	logger *slog.Logger,
) *service.BanEnforcer {
	return service.NewBanEnforcer(tx, reportRepo, contentRepo, userRepo, sessions, publisher,
		service.BanEnforcerConfig{Thresholds: cfg.ModerationThresholds, Concurrency: 4}, logger)
}

func provideReportService(cfg *config.Config, reportRepo repository.ReportRepository, contentRepo repository.ContentRepository, enforcer *service.BanEnforcer, logger *slog.Logger) *service.ReportService {
	return service.NewReportService(reportRepo, contentRepo, enforcer, cfg.EnforcementMode, logger)
}

func provideBanSweeper(cfg *config.Config, enforcer *service.BanEnforcer, logger *slog.Logger) *service.BanSweeper {
	return service.NewBanSweeper(enforcer, cfg.SweepInterval, logger)
}

func provideReadiness(db *gorm.DB, client *redis.Client) Readiness {
	checks := Readiness{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

// NewHTTPHandler mounts the API over core.
func NewHTTPHandler(cfg *config.Config, logger *slog.Logger, core *Core, readiness Readiness) http.Handler {
	return router.NewRouter(router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(core.Accounts, core.Tokens, core.Verification, logger),
		UserHandler:       handler.NewUserHandler(core.Sessions, core.Accounts, logger),
		ModerationHandler: handler.NewModerationHandler(core.Reports, core.Enforcer, logger),
		Verifier:          core.Tokens,
		ModeratorUserIDs:  cfg.ModeratorUserIDs,
		Readiness:         readiness,
		Logger:            logger,
		EnableOTelHTTP:    cfg.OTELTracingEnabled,
	})
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
