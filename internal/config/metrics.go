package config

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrInvalidConfig wraps every semantic validation failure.
var ErrInvalidConfig = errors.New("validate config")

// ParseError reports an environment variable whose value has the wrong type.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string { return "parse " + e.Key + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

var (
	configMetricsOnce sync.Once
	configLoads       metric.Int64Counter
)

func recordConfigLoad(ctx context.Context, env Environment, err error) {
	configMetricsOnce.Do(func() {
		counter, cerr := otel.Meter("social-trust-core").Int64Counter("config.load.events",
			metric.WithDescription("Configuration loads by environment and failure class"))
		if cerr == nil {
			configLoads = counter
		}
	})
	if configLoads == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	configLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("environment", environmentLabel(env)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", classifyConfigLoadError(err)),
	))
}

// environmentLabel keeps the attribute bounded when APP_ENV is garbage.
func environmentLabel(env Environment) string {
	switch env {
	case EnvDevelopment, EnvProduction:
		return string(env)
	default:
		return "unknown"
	}
}

func classifyConfigLoadError(err error) string {
	var parseErr *ParseError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidConfig):
		return "validation"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "load"
	}
}
