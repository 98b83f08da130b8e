package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/zakaat-bot"

// Outcome labels recorded on conversion and save counters.
const (
	OutcomeResolved    = "resolved"
	OutcomeUnavailable = "unavailable"
	OutcomeDiscarded   = "discarded"
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
)

// Metrics holds the bot's counters and tracer.
type Metrics struct {
	Tracer trace.Tracer

	calculations metric.Int64Counter
	conversions  metric.Int64Counter
	saves        metric.Int64Counter
}

// NewMetrics builds instruments from the global providers.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWith(otel.GetMeterProvider(), otel.GetTracerProvider())
}

// NewMetricsWith builds instruments from explicit providers.
func NewMetricsWith(mp metric.MeterProvider, tp trace.TracerProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)

	calculations, err := meter.Int64Counter("zakaat.calculations",
		metric.WithDescription("Zakaat calculations performed"))
	if err != nil {
		return nil, err
	}
	conversions, err := meter.Int64Counter("zakaat.conversions",
		metric.WithDescription("Currency conversion requests by outcome"))
	if err != nil {
		return nil, err
	}
	saves, err := meter.Int64Counter("zakaat.saves",
		metric.WithDescription("Calculation save attempts by outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Tracer:       tp.Tracer(instrumentationName),
		calculations: calculations,
		conversions:  conversions,
		saves:        saves,
	}, nil
}

// RecordCalculation counts one calculation, labelled by nisaab base.
func (m *Metrics) RecordCalculation(ctx context.Context, base string, meetsNisaab bool) {
	if m == nil {
		return
	}
	m.calculations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("nisaab_base", base),
		attribute.Bool("meets_nisaab", meetsNisaab),
	))
}

// RecordConversion counts one conversion request.
func (m *Metrics) RecordConversion(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSave counts one save attempt.
func (m *Metrics) RecordSave(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.saves.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// StartSpan starts a span on the bot tracer. A nil receiver uses the global one.
func (m *Metrics) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if m == nil || m.Tracer == nil {
		return otel.Tracer(instrumentationName).Start(ctx, name)
	}
	return m.Tracer.Start(ctx, name)
}
