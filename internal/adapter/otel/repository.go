package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

const instrumentationName = "github.com/neomorfeo/gardeniq/internal/adapter/otel"

// TracingJournal wraps a domain.EventJournal with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingJournal struct {
	next   domain.EventJournal
	tracer trace.Tracer
}

// Compile-time check: TracingJournal implements domain.EventJournal.
var _ domain.EventJournal = (*TracingJournal)(nil)

// NewTracingJournal creates a tracing decorator around the given journal.
func NewTracingJournal(next domain.EventJournal) *TracingJournal {
	return &TracingJournal{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (j *TracingJournal) Append(ctx context.Context, event domain.Event) error {
	ctx, span := j.tracer.Start(ctx, "EventJournal.Append",
		trace.WithAttributes(
			attribute.String("event.id", event.ID),
			attribute.String("event.kind", string(event.Kind)),
		),
	)
	defer span.End()

	err := j.next.Append(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (j *TracingJournal) List(ctx context.Context, filter domain.JournalFilter) ([]domain.Event, error) {
	ctx, span := j.tracer.Start(ctx, "EventJournal.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Kind != nil {
		span.SetAttributes(attribute.String("filter.kind", string(*filter.Kind)))
	}

	events, err := j.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(events)))
	}
	return events, err
}
