package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sandeepkv93/social-trust-core/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewLogger returns the process logger. With OTEL logs enabled, records are
// exported through the otelslog bridge; otherwise they are written as JSON to w.
func NewLogger(ctx context.Context, cfg *config.Config, w io.Writer) (*slog.Logger, *sdklog.LoggerProvider, error) {
	if !cfg.OTELLogsEnabled {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelFor(cfg)})), nil, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp log exporter: %w", err)
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create log resource: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp)
	return otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(lp)), lp, nil
}

func levelFor(cfg *config.Config) slog.Level {
	if cfg.Environment == config.EnvDevelopment {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
