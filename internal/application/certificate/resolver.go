package certificate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// SignatureURLResolver turns a signature object key into a fetchable URL
type SignatureURLResolver interface {
	SignatureURL(ctx context.Context, filename string) (string, error)
}

// LayoutSource provides the built-in certificate markup
type LayoutSource interface {
	LegacyLayout() string
}

// Repositories groups the stores the render flow reads from
type Repositories struct {
	Certificates domain.CertificateRepository
	Profiles     domain.ProfileRepository
	Courses      domain.CourseRepository
	Settings     domain.SettingsRepository
	Templates    domain.TemplateRepository
	Signatures   domain.SignatureProfileRepository
}

// RenderContext is everything needed to draw one certificate
type RenderContext struct {
	Certificate       domain.Certificate
	Settings          domain.Settings
	Template          *domain.Template // nil when the built-in layout is used
	Markup            string
	Signer            domain.Signer
	SignatureFilename string
	SignatureURL      string
	SignatureSource   domain.SignatureSource
	Locale            language.Tag
}

// TemplateVersion returns the selected template's version, 0 for the built-in layout
func (rc *RenderContext) TemplateVersion() int {
	if rc.Template == nil {
		return 0
	}
	return rc.Template.Version
}

// TemplateName returns the selected template's name or "legacy"
func (rc *RenderContext) TemplateName() string {
	if rc.Template == nil {
		return "legacy"
	}
	return rc.Template.Name
}

// Fingerprint hashes the inputs that change the rendered document, including
// every substituted field. Presigned signature URLs rotate, so the signature
// is keyed by filename.
func (rc *RenderContext) Fingerprint() string {
	c := rc.Certificate
	s := rc.Settings
	parts := []string{
		c.ContentHash(),
		rc.Markup,
		rc.SignatureFilename,
		s.QRBaseURL,
		s.VerificationURL,
		s.LogoURL,
		s.PrimaryColor,
		s.SecondaryColor,
		rc.Locale.String(),
		strconv.Itoa(rc.TemplateVersion()),
	}
	fields := domain.BuildFieldMap(&c, rc.Signer, rc.Locale)
	for _, token := range domain.AllTokens() {
		parts = append(parts, string(token)+"="+fields[token])
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}

// Resolver assembles a RenderContext from the certificate, its template,
// the branding settings and the signature chain
type Resolver struct {
	repos      Repositories
	layouts    LayoutSource
	signatures SignatureURLResolver
	locale     language.Tag
	logger     *zap.Logger
}

// NewResolver creates a Resolver
func NewResolver(
	repos Repositories,
	layouts LayoutSource,
	signatures SignatureURLResolver,
	locale language.Tag,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		repos:      repos,
		layouts:    layouts,
		signatures: signatures,
		locale:     locale,
		logger:     logger,
	}
}

// Resolve loads the certificate and everything it is drawn with.
// Only a missing certificate is fatal; every other lookup degrades to defaults.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (*RenderContext, error) {
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Certificate ID is required")
	}
	log := logger.Enrich(ctx, r.logger).With(zap.String("certificate_id", id.String()))

	cert, err := r.repos.Certificates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Certificate not found")
		}
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	r.fillRecipient(ctx, cert, log)
	r.fillCourse(ctx, cert, log)

	rc := &RenderContext{
		Certificate: *cert,
		Settings:    r.loadSettings(ctx, log),
		Locale:      r.locale,
	}

	rc.Template = r.selectTemplate(ctx, cert.CourseID, log)
	if rc.Template != nil {
		rc.Markup = rc.Template.HTMLContent
	} else {
		rc.Markup = r.layouts.LegacyLayout()
	}

	rc.Signer = domain.Signer{Name: rc.Settings.SignerName, Title: rc.Settings.SignerTitle}
	if rc.Template != nil {
		if name := strings.TrimSpace(rc.Template.SignerName); name != "" {
			rc.Signer.Name = name
		}
		if title := strings.TrimSpace(rc.Template.SignerTitle); title != "" {
			rc.Signer.Title = title
		}
	}

	r.resolveSignature(ctx, rc, log)

	log.Debug("Render context resolved",
		zap.String("template", rc.TemplateName()),
		zap.Int("template_version", rc.TemplateVersion()),
		zap.String("signature_source", string(rc.SignatureSource)),
	)
	return rc, nil
}

func (r *Resolver) fillRecipient(ctx context.Context, cert *domain.Certificate, log *zap.Logger) {
	if r.repos.Profiles == nil || cert.ProfileID == uuid.Nil {
		return
	}
	if cert.Recipient.FullName != "" && cert.Recipient.City != "" {
		return
	}
	profile, err := r.repos.Profiles.FindByID(ctx, cert.ProfileID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			log.Warn("Failed to load recipient profile", zap.Error(err))
		}
		return
	}
	cert.WithRecipient(profile)
}

func (r *Resolver) fillCourse(ctx context.Context, cert *domain.Certificate, log *zap.Logger) {
	if r.repos.Courses == nil || cert.CourseID == uuid.Nil {
		return
	}
	if cert.CourseTitle != "" && cert.Hours > 0 {
		return
	}
	course, err := r.repos.Courses.FindByID(ctx, cert.CourseID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			log.Warn("Failed to load course", zap.Error(err))
		}
		return
	}
	if cert.CourseTitle == "" {
		cert.CourseTitle = course.Title
	}
	if cert.Hours <= 0 {
		cert.Hours = course.Hours
	}
}

func (r *Resolver) loadSettings(ctx context.Context, log *zap.Logger) domain.Settings {
	if r.repos.Settings == nil {
		return domain.ResolveSettings(nil)
	}
	fetched, err := r.repos.Settings.FindActive(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			log.Warn("Failed to load certificate settings, using defaults", zap.Error(err))
		}
		return domain.ResolveSettings(nil)
	}
	return domain.ResolveSettings(fetched)
}

func (r *Resolver) selectTemplate(ctx context.Context, courseID uuid.UUID, log *zap.Logger) *domain.Template {
	if r.repos.Templates == nil {
		return nil
	}
	candidates, err := r.repos.Templates.FindCandidates(ctx, courseID)
	if err != nil {
		log.Warn("Failed to load certificate templates, using built-in layout", zap.Error(err))
		return nil
	}
	selected := domain.SelectTemplate(candidates, courseID)
	if selected == nil {
		return nil
	}
	t := *selected
	return &t
}

func (r *Resolver) resolveSignature(ctx context.Context, rc *RenderContext, log *zap.Logger) {
	var templateProfile, defaultProfile *domain.SignatureProfile
	if rc.Template != nil && rc.Template.SignatureProfileID != nil {
		templateProfile = r.loadSignatureProfile(ctx, *rc.Template.SignatureProfileID, log)
	}
	templateHasFile := templateProfile != nil && strings.TrimSpace(templateProfile.Filename) != ""
	if !templateHasFile && strings.TrimSpace(rc.Certificate.SignatureFilename) == "" &&
		rc.Settings.DefaultSignatureProfileID != nil {
		defaultProfile = r.loadSignatureProfile(ctx, *rc.Settings.DefaultSignatureProfileID, log)
	}

	filename, source := domain.ResolveSignature(templateProfile, &rc.Certificate, defaultProfile)
	if filename == "" || r.signatures == nil {
		return
	}

	url, err := r.signatures.SignatureURL(ctx, filename)
	if err != nil {
		log.Warn("Failed to resolve signature URL, omitting signature",
			zap.String("signature", filename),
			zap.Error(err),
		)
		return
	}
	rc.SignatureFilename = filename
	rc.SignatureURL = url
	rc.SignatureSource = source
}

func (r *Resolver) loadSignatureProfile(ctx context.Context, id uuid.UUID, log *zap.Logger) *domain.SignatureProfile {
	if r.repos.Signatures == nil {
		return nil
	}
	p, err := r.repos.Signatures.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			log.Warn("Failed to load signature profile",
				zap.String("signature_profile_id", id.String()),
				zap.Error(err),
			)
		}
		return nil
	}
	return p
}
