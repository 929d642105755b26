package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/social-trust-core/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const instrumentationName = "social-trust-core"

type AppMetrics struct {
	tokenVerifyCounter   metric.Int64Counter
	tokenIssueCounter    metric.Int64Counter
	sessionCacheCounter  metric.Int64Counter
	sessionRevokeCounter metric.Int64Counter
	integrityCounter     metric.Int64Counter
	reportCounter        metric.Int64Counter
	banCounter           metric.Int64Counter
	sweepCounter         metric.Int64Counter
	repositoryOpCounter  metric.Int64Counter
	emailCodeCounter     metric.Int64Counter
	eventPublishCounter  metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	names := []string{
		"trust.token.verifications",
		"trust.token.issued",
		"trust.session_cache.lookups",
		"trust.session.revocations",
		"trust.integrity.violations",
		"moderation.reports",
		"moderation.bans",
		"moderation.sweeps",
		"repository.operations",
		"trust.email_code.events",
		"moderation.events.published",
	}
	counters := make([]metric.Int64Counter, len(names))
	for i, name := range names {
		c, err := meter.Int64Counter(name)
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", name, err)
		}
		counters[i] = c
	}
	return &AppMetrics{
		tokenVerifyCounter:   counters[0],
		tokenIssueCounter:    counters[1],
		sessionCacheCounter:  counters[2],
		sessionRevokeCounter: counters[3],
		integrityCounter:     counters[4],
		reportCounter:        counters[5],
		banCounter:           counters[6],
		sweepCounter:         counters[7],
		repositoryOpCounter:  counters[8],
		emailCodeCounter:     counters[9],
		eventPublishCounter:  counters[10],
	}, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordTokenVerification(ctx context.Context, mode, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenVerifyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

func RecordTokenIssued(ctx context.Context, kind string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenIssueCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordSessionCacheLookup result is one of hit, miss, error.
func RecordSessionCacheLookup(ctx context.Context, result string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionCacheCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func RecordSessionRevocation(ctx context.Context, scope, status string, count int) {
	m := current()
	if m == nil {
		return
	}
	m.sessionRevokeCounter.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("status", status),
	))
}

func RecordIntegrityViolation(ctx context.Context, kind string) {
	m := current()
	if m == nil {
		return
	}
	m.integrityCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func RecordReport(ctx context.Context, targetType, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.reportCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_type", targetType),
		attribute.String("outcome", outcome),
	))
}

func RecordBan(ctx context.Context, targetType, trigger, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.banCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_type", targetType),
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	))
}

func RecordSweep(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.sweepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repo),
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func RecordEmailCode(ctx context.Context, event string) {
	m := current()
	if m == nil {
		return
	}
	m.emailCodeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func RecordEventPublish(ctx context.Context, routingKey, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.eventPublishCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("routing_key", routingKey),
		attribute.String("outcome", outcome),
	))
}
