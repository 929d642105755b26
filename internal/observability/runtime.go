package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/social-trust-core/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the telemetry providers of one process. Any provider may be
// nil when its signal is disabled.
type Runtime struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
}

func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*Runtime, error) {
	rt := &Runtime{LoggerProvider: lp}
	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.MeterProvider = mp
	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.TracerProvider = tp
	return rt, nil
}

// Shutdown flushes traces, then metrics, then logs, so records emitted while
// the first two drain still reach the log exporter.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	type provider interface{ Shutdown(context.Context) error }
	steps := []struct {
		name string
		p    provider
		set  bool
	}{
		{"tracer", r.TracerProvider, r.TracerProvider != nil},
		{"meter", r.MeterProvider, r.MeterProvider != nil},
		{"logger", r.LoggerProvider, r.LoggerProvider != nil},
	}
	var errs []error
	for _, step := range steps {
		if !step.set {
			continue
		}
		if err := step.p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s provider: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}
