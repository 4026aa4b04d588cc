package services

import (
	"context"
	"log/slog"

	"github.com/dukex/stepflow/pkg/cache"
	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "stepflow/services"

// Option configures the collaborators shared by every service.
type Option func(*base)

// WithEventPublisher publishes a change event after every successful mutation.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(b *base) {
		b.publisher = publisher
	}
}

// WithViewCache serves workflow views from viewCache and invalidates them on change.
func WithViewCache(viewCache cache.ViewCache) Option {
	return func(b *base) {
		b.cache = viewCache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

type base struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	cache       cache.ViewCache
	logger      *slog.Logger
	tracer      trace.Tracer
}

func newBase(p persistence.Persistence, opts []Option) base {
	b := base{
		persistence: p,
		cache:       cache.Noop{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(&b)
	}

	b.tracer = otelhelper.Tracer(tracerName)

	return b
}

// nolint:spancheck // callers end the span
func (b *base) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otelhelper.StartSpan(ctx, b.tracer, name, attrs...)
}

// fail records err on span and returns it.
func (b *base) fail(span trace.Span, err error) error {
	otelhelper.SetError(span, err)

	return err
}

// changed drops the cached view of workflowID and publishes event. Neither
// failure undoes the mutation, so both are only logged.
func (b *base) changed(ctx context.Context, workflowID string, event eventbus.Event) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(otelhelper.EventTypeKey, string(event.GetType())))

	err := b.cache.Invalidate(ctx, workflowID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to invalidate cached workflow view",
			"workflow_id", workflowID, "error", err)
	}

	if b.publisher == nil {
		return
	}

	err = b.publisher.Publish(ctx, workflowID, event)
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to publish change event",
			"workflow_id", workflowID, "event_type", event.GetType(), "error", err)
	}
}
