package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with a span per event and
// a counter of published events by kind.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
// Instruments are taken from the global providers at construction time.
func NewTracingPublisher(next domain.EventPublisher) (*TracingPublisher, error) {
	published, err := otel.Meter(instrumentationName).Int64Counter("garden.events.published",
		metric.WithDescription("Garden events published, by kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(instrumentationName),
		published: published,
	}, nil
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("event.id", event.ID),
			attribute.String("event.kind", string(event.Kind)),
			attribute.Int64("garden.version", int64(event.Version)),
		),
	)
	defer span.End()

	if event.Slot != nil {
		span.SetAttributes(
			attribute.Int("garden.bed", event.Slot.Bed),
			attribute.Int("garden.section", event.Slot.Section),
		)
	}

	err := p.next.Publish(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.published.Add(ctx, 1, metric.WithAttributes(attribute.String("event.kind", string(event.Kind))))
	return nil
}

// TracingTicker wraps a domain.Ticker so each periodic tick gets a root span.
type TracingTicker struct {
	next   domain.Ticker
	tracer trace.Tracer
}

var _ domain.Ticker = (*TracingTicker)(nil)

func NewTracingTicker(next domain.Ticker) *TracingTicker {
	return &TracingTicker{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (t *TracingTicker) Tick(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, "Ticker.Tick")
	defer span.End()

	err := t.next.Tick(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
