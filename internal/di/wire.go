//go:build wireinject
// +build wireinject

package di

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/social-trust-core/internal/app"
	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
)

// InitializeCore builds the service graph over caller-owned stores. A nil
// client disables the redis session layers.
func InitializeCore(cfg *config.Config, logger *slog.Logger, db *gorm.DB, client *redis.Client) (*Core, func(), error) {
	wire.Build(CoreSet)
	return nil, nil, nil
}

// InitializeStandaloneCore opens the configured stores itself, for one-shot
// commands that do not serve HTTP.
func InitializeStandaloneCore(cfg *config.Config, logger *slog.Logger) (*Core, func(), error) {
	wire.Build(InfraSet, CoreSet)
	return nil, nil, nil
}

func InitializeApp(cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*app.App, func(), error) {
	wire.Build(InfraSet, CoreSet, HTTPSet, app.New)
	return nil, nil, nil
}
