package certificate_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	app "github.com/udes/eexchange/internal/application/certificate"
	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	infra "github.com/udes/eexchange/internal/infrastructure/printing"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type serviceFixture struct {
	mocks      *resolverMocks
	rasterizer *fakeRasterizer
	observer   *recordingObserver
	service    *app.CertificateService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := zap.NewNop()
	store, err := infra.NewLayoutStore("")
	require.NoError(t, err)
	engine := infra.NewTemplateEngine(store)

	f := &serviceFixture{
		mocks:      newResolverMocks(),
		rasterizer: newFakeRasterizer(t),
		observer:   &recordingObserver{},
	}
	resolver := app.NewResolver(f.mocks.repositories(), engine, f.mocks.urls, language.Spanish, logger)
	builder := app.NewPageBuilder(engine, infra.NewQRGenerator(), true, logger)
	exporter := app.NewExporter(builder, f.rasterizer, infra.NewPageComposer(85, logger),
		app.ExporterConfig{Timeout: 5 * time.Second}, logger, app.WithExportObserver(f.observer))
	f.service = app.NewCertificateService(f.mocks.certs, resolver, builder, exporter, f.observer, language.Spanish, logger)
	return f
}

func TestCertificateService_Download(t *testing.T) {
	f := newServiceFixture(t)
	cert := sampleCertificate()
	tmpl := globalTemplate(t, "<h1>{{student_name}}</h1><p>{{course_title}}</p>")

	f.mocks.certs.On("FindByID", mock.Anything, cert.ID).Return(cert, nil)
	f.mocks.settings.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)
	f.mocks.templates.On("FindCandidates", mock.Anything, cert.CourseID).Return([]domain.Template{*tmpl}, nil)

	doc, err := f.service.Download(context.Background(), cert.ID)
	require.NoError(t, err)

	assert.Equal(t, "Certificado_Participacion_CERT-0001.pdf", doc.Filename)
	assert.True(t, strings.HasPrefix(string(doc.PDF), "%PDF"))
	page := f.rasterizer.LastPage()
	assert.Contains(t, page, "<h1>María López</h1><p>Gestión Cultural</p>")
	assert.NotContains(t, page, `<img class="signature-image"`)
	f.mocks.assertExpectations(t)
}

func TestCertificateService_Download_ExportFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.rasterizer.failNext = 1
	cert := sampleCertificate()

	f.mocks.certs.On("FindByID", mock.Anything, cert.ID).Return(cert, nil)
	f.mocks.settings.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)
	f.mocks.templates.On("FindCandidates", mock.Anything, cert.CourseID).Return([]domain.Template{}, nil)

	doc, err := f.service.Download(context.Background(), cert.ID)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, shared.ErrExportFailed)
	assert.Equal(t, 1, f.rasterizer.Opens())
}

func TestCertificateService_Preview(t *testing.T) {
	f := newServiceFixture(t)
	cert := sampleCertificate()

	f.mocks.certs.On("FindByID", mock.Anything, cert.ID).Return(cert, nil)
	f.mocks.settings.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)
	f.mocks.templates.On("FindCandidates", mock.Anything, cert.CourseID).Return([]domain.Template{}, nil)

	preview, err := f.service.Preview(context.Background(), cert.ID)
	require.NoError(t, err)

	assert.Equal(t, "legacy", preview.TemplateName)
	assert.Equal(t, "Certificado_Participacion_CERT-0001.pdf", preview.Filename)
	assert.Equal(t, "https://udesvirtual.com/verificar-certificado?code=CERT-0001", preview.VerificationURL)
	assert.True(t, preview.HasQR)
	assert.Contains(t, preview.HTML, "María López")
	assert.Contains(t, preview.HTML, "18 de octubre de 2026")
	assert.Zero(t, f.rasterizer.Opens(), "preview never rasterizes")
}

func TestCertificateService_Verify(t *testing.T) {
	f := newServiceFixture(t)
	cert := sampleCertificate()
	cert.MD5Hash = cert.ContentHash()
	f.mocks.certs.On("FindByVerificationCode", mock.Anything, "CERT-0001").Return(cert, nil)

	resp, err := f.service.Verify(context.Background(), " CERT-0001 ")
	require.NoError(t, err)

	assert.True(t, resp.Valid)
	assert.True(t, resp.HashMatches)
	assert.Equal(t, "María López", resp.RecipientName)
	assert.Equal(t, "Gestión Cultural", resp.CourseTitle)
	assert.Equal(t, "18 de octubre de 2026", resp.IssuedDate)
	assert.Equal(t, 40, resp.Hours)
	assert.Equal(t, []bool{true}, f.observer.verifications)
}

func TestCertificateService_Verify_TamperedRecord(t *testing.T) {
	f := newServiceFixture(t)
	cert := sampleCertificate()
	cert.MD5Hash = cert.ContentHash()
	cert.Hours = 400
	f.mocks.certs.On("FindByVerificationCode", mock.Anything, "CERT-0001").Return(cert, nil)

	resp, err := f.service.Verify(context.Background(), "CERT-0001")
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.HashMatches)
}

func TestCertificateService_Verify_UnknownCode(t *testing.T) {
	f := newServiceFixture(t)
	f.mocks.certs.On("FindByVerificationCode", mock.Anything, "NOPE").Return(nil, shared.ErrNotFound)

	resp, err := f.service.Verify(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Equal(t, "NOPE", resp.VerificationCode)
	assert.Empty(t, resp.RecipientName)
	assert.Equal(t, []bool{false}, f.observer.verifications)
}

func TestCertificateService_Verify_Errors(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Verify(context.Background(), "   ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	dbErr := errors.New("connection refused")
	f.mocks.certs.On("FindByVerificationCode", mock.Anything, "CERT-0002").Return(nil, dbErr)
	_, err = f.service.Verify(context.Background(), "CERT-0002")
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, f.observer.verifications)
}
