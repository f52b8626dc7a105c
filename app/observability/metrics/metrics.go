package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AuthRequestsTotal        metric.Int64Counter
	RateLimitRejectionsTotal metric.Int64Counter
	DbQueryDurationSeconds   metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so the
// tracer/metrics providers must be set up first.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-blog-api")
		var err error
		m := &AppMetrics{}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Authenticated requests by outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.RateLimitRejectionsTotal, err = meter.Int64Counter(
			"rate_limit_rejections_total",
			metric.WithDescription("Requests rejected by the rate limiter"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create rate_limit_rejections_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, or nil when
// InitAppMetrics has not run (e.g. in tests). All record helpers are
// nil-receiver safe for that reason.
func Get() *AppMetrics {
	return appMetrics
}

func (m *AppMetrics) RecordAuthRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *AppMetrics) RecordRateLimitRejection(ctx context.Context) {
	if m == nil {
		return
	}
	m.RateLimitRejectionsTotal.Add(ctx, 1)
}

func (m *AppMetrics) ObserveDBQuery(ctx context.Context, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.DbQueryDurationSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("db.operation", op)))
}
