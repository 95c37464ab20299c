package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udes/eexchange/internal/domain/shared"
)

// TracerName names the tracer used for application spans
const TracerName = "udes-certificates"

// Span attribute keys
const (
	SpanAttrCertificateID    = "certificate.id"
	SpanAttrCourseID         = "course.id"
	SpanAttrTemplateID       = "template.id"
	SpanAttrTemplateVersion  = "template.version"
	SpanAttrVerificationCode = "certificate.verification_code"
	SpanAttrExportOutcome    = "export.outcome"
	SpanAttrPDFBytes         = "export.pdf_bytes"
)

// StartServiceSpan starts an internal span named {service}.{method}.
// The caller ends the span.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx,
		fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span as failed.
// Not-found and validation domain errors are expected outcomes and only add an event.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code != shared.ErrExportFailed.Code {
		span.AddEvent("domain_error", trace.WithAttributes(attribute.String("error.code", de.Code)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the hex trace id of the span in ctx, or ""
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
