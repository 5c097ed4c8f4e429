package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartStoreSpan starts a client span around a key-value backend call
func StartStoreSpan(ctx context.Context, backend, operation, key string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("KV %s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", backend),
			attribute.String("db.operation", operation),
			attribute.String("kv.key", key),
		),
	)
}

// StartCatalogSpan starts a client span around an upstream catalog request
func StartCatalogSpan(ctx context.Context, source string, page, pageSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("catalog.%s.Fetch", source),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			CatalogSource(source),
			attribute.Int("catalog.page", page),
			attribute.Int("catalog.page_size", pageSize),
		),
	)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GalleryMetrics holds the gallery business counters. A nil *GalleryMetrics records nothing.
type GalleryMetrics struct {
	fetches           metric.Int64Counter
	merged            metric.Int64Counter
	favoriteToggles   metric.Int64Counter
	submissions       metric.Int64Counter
	persistenceErrors metric.Int64Counter
}

// NewGalleryMetrics creates gallery metrics instruments on the global meter provider
func NewGalleryMetrics() (*GalleryMetrics, error) {
	meter := otel.Meter(instrumentationName)

	fetches, err := meter.Int64Counter(
		"gallery.fetch.count",
		metric.WithDescription("Catalog fetch-more cycles"),
		metric.WithUnit("{fetches}"),
	)
	if err != nil {
		return nil, err
	}

	merged, err := meter.Int64Counter(
		"gallery.artworks.merged",
		metric.WithDescription("Catalog artworks appended to the collection"),
		metric.WithUnit("{artworks}"),
	)
	if err != nil {
		return nil, err
	}

	favoriteToggles, err := meter.Int64Counter(
		"gallery.favorites.toggles",
		metric.WithDescription("Favorite toggles"),
		metric.WithUnit("{toggles}"),
	)
	if err != nil {
		return nil, err
	}

	submissions, err := meter.Int64Counter(
		"gallery.submissions",
		metric.WithDescription("User artwork submissions"),
		metric.WithUnit("{artworks}"),
	)
	if err != nil {
		return nil, err
	}

	persistenceErrors, err := meter.Int64Counter(
		"gallery.persistence.errors",
		metric.WithDescription("Absorbed persistence write failures"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	return &GalleryMetrics{
		fetches:           fetches,
		merged:            merged,
		favoriteToggles:   favoriteToggles,
		submissions:       submissions,
		persistenceErrors: persistenceErrors,
	}, nil
}

// RecordFetch records one fetch-more cycle and how many artworks it appended
func (m *GalleryMetrics) RecordFetch(ctx context.Context, merged int, success bool) {
	if m == nil {
		return
	}
	m.fetches.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.merged.Add(ctx, int64(merged))
	}
}

// RecordFavoriteToggle records a toggle; added is false when the id was removed
func (m *GalleryMetrics) RecordFavoriteToggle(ctx context.Context, added bool) {
	if m == nil {
		return
	}
	m.favoriteToggles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("added", added)))
}

// RecordSubmission records a user submission
func (m *GalleryMetrics) RecordSubmission(ctx context.Context) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1)
}

// RecordPersistenceError records a write failure that was logged and absorbed
func (m *GalleryMetrics) RecordPersistenceError(ctx context.Context, key string) {
	if m == nil {
		return
	}
	m.persistenceErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kv.key", key)))
}
