package feedrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// Operation outcome labels for feedrank_sdk_operations_total.
const (
	outcomeOK            = "ok"
	outcomeNotFound      = "not_found"
	outcomeBadRequest    = "bad_request"
	outcomeProviderError = "provider_error"
	outcomeError         = "error"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedrank",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feedrank",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one,
// so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("feedrank: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("feedrank: register metric: %w", err)
	}
	return nil
}

// outcome classifies an operation error for metrics and log levels.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, domain.ErrMalformedQuery), errors.Is(err, domain.ErrInvalidInput):
		return outcomeBadRequest
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return outcomeProviderError
	default:
		return outcomeError
	}
}

// observer provides logging and metrics for SDK operations.
// A nil observer, or one without logger or registry, is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("status", status),
		slog.Duration("duration", dur),
	}
	switch status {
	case outcomeOK:
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation completed", attrs...)
	case outcomeNotFound, outcomeBadRequest:
		o.logger.LogAttrs(context.Background(), slog.LevelInfo, "operation rejected",
			append(attrs, slog.Any("error", err))...)
	default:
		o.logger.LogAttrs(context.Background(), slog.LevelWarn, "operation failed",
			append(attrs, slog.Any("error", err))...)
	}
}
