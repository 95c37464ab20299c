package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// VerificationObserver records verification lookups
type VerificationObserver interface {
	ObserveVerification(ctx context.Context, found bool)
}

// CertificateService renders, exports and verifies issued certificates
type CertificateService struct {
	certificates domain.CertificateRepository
	resolver     *Resolver
	builder      *PageBuilder
	exporter     *Exporter
	metrics      VerificationObserver
	locale       language.Tag
	logger       *zap.Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	certificates domain.CertificateRepository,
	resolver *Resolver,
	builder *PageBuilder,
	exporter *Exporter,
	metrics VerificationObserver,
	locale language.Tag,
	logger *zap.Logger,
) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificates: certificates,
		resolver:     resolver,
		builder:      builder,
		exporter:     exporter,
		metrics:      metrics,
		locale:       locale,
		logger:       logger,
	}
}

// Preview renders the certificate page without rasterizing it
func (s *CertificateService) Preview(ctx context.Context, id uuid.UUID) (*PreviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CertificateService", "Preview",
		attribute.String(telemetry.SpanAttrCertificateID, id.String()))
	defer span.End()

	rc, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	page, err := s.builder.Build(ctx, rc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &PreviewResponse{
		CertificateID:    rc.Certificate.ID.String(),
		Filename:         rc.Certificate.DownloadFilename(),
		HTML:             page.HTML,
		TemplateName:     rc.TemplateName(),
		TemplateVersion:  rc.TemplateVersion(),
		SignatureSource:  string(rc.SignatureSource),
		VerificationURL:  page.VerificationURL,
		HasQR:            page.HasQR,
		UnresolvedTokens: page.Unresolved,
	}, nil
}

// Download resolves and exports the certificate as a PDF
func (s *CertificateService) Download(ctx context.Context, id uuid.UUID) (*Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "CertificateService", "Download",
		attribute.String(telemetry.SpanAttrCertificateID, id.String()))
	defer span.End()

	rc, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if rc.Template != nil {
		span.SetAttributes(attribute.String(telemetry.SpanAttrTemplateID, rc.Template.ID.String()))
	}
	span.SetAttributes(attribute.String(telemetry.SpanAttrCourseID, rc.Certificate.CourseID.String()))

	doc, err := s.exporter.Export(ctx, rc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Certificate downloaded",
		zap.String("certificate_id", id.String()),
		zap.String("filename", doc.Filename),
		zap.Bool("cached", doc.Cached),
	)
	return doc, nil
}

// Verify looks up a certificate by its public verification code.
// An unknown code is a valid answer, not an error.
func (s *CertificateService) Verify(ctx context.Context, code string) (*VerificationResponse, error) {
	code = strings.TrimSpace(code)
	ctx, span := telemetry.StartServiceSpan(ctx, "CertificateService", "Verify",
		attribute.String(telemetry.SpanAttrVerificationCode, code))
	defer span.End()

	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Verification code is required")
	}

	cert, err := s.certificates.FindByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.observeVerification(ctx, false)
			return &VerificationResponse{Valid: false, VerificationCode: code}, nil
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to look up verification code: %w", err)
	}
	s.observeVerification(ctx, true)

	log := s.logger.With(zap.String("certificate_id", cert.ID.String()))
	s.resolver.fillRecipient(ctx, cert, log)
	s.resolver.fillCourse(ctx, cert, log)

	resp := &VerificationResponse{
		Valid:            true,
		VerificationCode: cert.VerificationCode,
		HashMatches:      cert.HashMatches(),
		RecipientName:    cert.Recipient.FullName,
		CourseTitle:      cert.CourseTitle,
		IssuedDate:       domain.FormatIssuedDate(cert.IssuedAt, s.locale),
		Hours:            cert.Hours,
	}
	if !cert.IssuedAt.IsZero() {
		issued := cert.IssuedAt
		resp.IssuedAt = &issued
	}
	if !resp.HashMatches {
		log.Warn("Certificate integrity hash mismatch", zap.String("verification_code", code))
	}
	return resp, nil
}

func (s *CertificateService) observeVerification(ctx context.Context, found bool) {
	if s.metrics != nil {
		s.metrics.ObserveVerification(ctx, found)
	}
}
