package certificate

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/infrastructure/logger"
	infra "github.com/udes/eexchange/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// PageRenderer wraps substituted markup in the printable page shell
type PageRenderer interface {
	RenderPage(ctx context.Context, data *infra.PageData) (string, error)
}

// QREncoder encodes a verification URL as an inline image
type QREncoder interface {
	DataURI(payload, foreground string) string
}

// Page is a fully rendered certificate document, ready for capture
type Page struct {
	HTML            string
	VerificationURL string
	HasQR           bool
	// Unresolved lists placeholders left in the markup that no field covers
	Unresolved []string
}

// PageBuilder substitutes certificate fields into the markup and binds
// the result to the page shell
type PageBuilder struct {
	pages  PageRenderer
	qr     QREncoder
	escape bool
	logger *zap.Logger
}

// NewPageBuilder creates a PageBuilder. escape controls HTML-escaping of field values.
func NewPageBuilder(pages PageRenderer, qr QREncoder, escape bool, logger *zap.Logger) *PageBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageBuilder{pages: pages, qr: qr, escape: escape, logger: logger}
}

// Build renders the certificate page for rc
func (b *PageBuilder) Build(ctx context.Context, rc *RenderContext) (*Page, error) {
	log := logger.Enrich(ctx, b.logger).With(zap.String("certificate_id", rc.Certificate.ID.String()))

	fields := domain.BuildFieldMap(&rc.Certificate, rc.Signer, rc.Locale)
	body := domain.Substitute(rc.Markup, fields, b.escape)
	page := &Page{Unresolved: domain.UnresolvedTokens(rc.Markup, fields)}
	if len(page.Unresolved) > 0 {
		log.Debug("Template has unknown placeholders", zap.Strings("tokens", page.Unresolved))
	}

	code := strings.TrimSpace(rc.Certificate.VerificationCode)
	var qrURI string
	if code != "" {
		payload, err := domain.VerificationURL(rc.Settings.QRBaseURL, code)
		if err != nil {
			log.Warn("Invalid QR base URL, omitting QR", zap.Error(err))
		} else {
			page.VerificationURL = payload
			if b.qr != nil {
				qrURI = b.qr.DataURI(payload, rc.Settings.PrimaryColor)
			}
			if qrURI == "" {
				log.Warn("QR encoding failed, omitting QR")
			}
		}
	}
	page.HasQR = qrURI != ""

	data := &infra.PageData{
		Lang:             languageCode(rc),
		Title:            pageTitle(rc),
		Body:             template.HTML(body), // #nosec G203 -- template markup is administrator-authored
		LogoURL:          rc.Settings.LogoURL,
		QRDataURI:        template.URL(qrURI), // #nosec G203 -- generated data URI
		VerificationURL:  rc.Settings.VerificationURL,
		VerificationCode: code,
		CodeLabel:        codeLabel(rc),
		SignatureURL:     rc.SignatureURL,
		SignerName:       rc.Signer.Name,
		SignerTitle:      rc.Signer.Title,
		PrimaryColor:     template.CSS(rc.Settings.PrimaryColor),
		SecondaryColor:   template.CSS(rc.Settings.SecondaryColor),
	}

	doc, err := b.pages.RenderPage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate page: %w", err)
	}
	page.HTML = doc
	return page, nil
}

func languageCode(rc *RenderContext) string {
	base, _ := rc.Locale.Base()
	return base.String()
}

func codeLabel(rc *RenderContext) string {
	if languageCode(rc) == "en" {
		return "Verification code"
	}
	return "Código de verificación"
}

func pageTitle(rc *RenderContext) string {
	name := strings.TrimSpace(rc.Certificate.Recipient.FullName)
	if name == "" {
		return "Certificado"
	}
	return "Certificado - " + name
}
