package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Export outcomes
const (
	OutcomeRendered  = "rendered"
	OutcomeCached    = "cached"
	OutcomeCoalesced = "coalesced"
	OutcomeFailed    = "failed"
)

// CertificateMetrics holds the instruments for certificate exports and verification
type CertificateMetrics struct {
	exports       *Counter
	exportSeconds *Histogram
	verifications *Counter
}

// NewCertificateMetrics registers the certificate instruments on meter
func NewCertificateMetrics(meter metric.Meter) (*CertificateMetrics, error) {
	exports, err := NewCounter(meter,
		"certificate_exports_total",
		"Certificate PDF exports by outcome",
		"{export}",
	)
	if err != nil {
		return nil, err
	}
	exportSeconds, err := NewHistogram(meter, HistogramOpts{
		Name:        "certificate_export_duration_seconds",
		Description: "Time from download request to finished PDF",
		Unit:        "s",
		Boundaries:  ExportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	verifications, err := NewCounter(meter,
		"certificate_verifications_total",
		"Public verification lookups by outcome",
		"{lookup}",
	)
	if err != nil {
		return nil, err
	}
	return &CertificateMetrics{
		exports:       exports,
		exportSeconds: exportSeconds,
		verifications: verifications,
	}, nil
}

// ObserveExport counts one export and records its duration
func (m *CertificateMetrics) ObserveExport(ctx context.Context, outcome string, d time.Duration) {
	attrs := []attribute.KeyValue{AttrOutcome.String(outcome)}
	m.exports.Inc(ctx, attrs...)
	m.exportSeconds.RecordDuration(ctx, d, attrs...)
}

// ObserveVerification counts one public lookup
func (m *CertificateMetrics) ObserveVerification(ctx context.Context, found bool) {
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	m.verifications.Inc(ctx, AttrOutcome.String(outcome))
}
