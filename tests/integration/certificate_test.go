package integration

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/persistence"
	"github.com/udes/eexchange/internal/infrastructure/printing"
	"github.com/udes/eexchange/internal/infrastructure/storage"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

type services struct {
	certs *certapp.CertificateService
	admin *certapp.AdminService
}

func newServices(t *testing.T, tdb *TestDB) services {
	t.Helper()
	log := zaptest.NewLogger(t)

	repos := certapp.Repositories{
		Certificates: persistence.NewGormCertificateRepository(tdb.DB),
		Profiles:     persistence.NewGormProfileRepository(tdb.DB),
		Courses:      persistence.NewGormCourseRepository(tdb.DB),
		Settings:     persistence.NewGormSettingsRepository(tdb.DB),
		Templates:    persistence.NewGormTemplateRepository(tdb.DB),
		Signatures:   persistence.NewGormSignatureProfileRepository(tdb.DB),
	}

	layouts, err := printing.NewLayoutStore("")
	require.NoError(t, err)
	engine := printing.NewTemplateEngine(layouts)
	objects := storage.NewStaticObjectStorage("/signatures")
	locale := language.Spanish

	builder := certapp.NewPageBuilder(engine, printing.NewQRGenerator(), true, log)
	resolver := certapp.NewResolver(repos, engine, objects, locale, log)

	return services{
		// Export needs a browser; these tests stop at the rendered page
		certs: certapp.NewCertificateService(repos.Certificates, resolver, builder, nil, nil, locale, log),
		admin: certapp.NewAdminService(repos.Templates, repos.Settings, repos.Signatures, repos.Courses, objects, log),
	}
}

func TestVerify_Integration(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()
	tdb.SeedCertificate("UDES-2026-0001", "Ana Pérez", "Gestión de Proyectos")

	t.Run("code lookup ignores case", func(t *testing.T) {
		resp, err := svc.certs.Verify(ctx, "udes-2026-0001")
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.Equal(t, "UDES-2026-0001", resp.VerificationCode)
		assert.Equal(t, "Ana Pérez", resp.RecipientName)
		assert.Equal(t, "Gestión de Proyectos", resp.CourseTitle)
		assert.NotEmpty(t, resp.IssuedDate)
	})

	t.Run("unknown code is not an error", func(t *testing.T) {
		resp, err := svc.certs.Verify(ctx, "NOPE-0000")
		require.NoError(t, err)
		assert.False(t, resp.Valid)
	})
}

func TestTemplateActivation_Integration(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()
	cert := tdb.SeedCertificate("UDES-2026-0002", "Luis Gómez", "Liderazgo")

	first, err := svc.admin.CreateTemplate(ctx, certapp.CreateTemplateRequest{
		Name:        "Global A",
		HTMLContent: `<div id="certificate">A {{student_name}}</div>`,
		IsGlobal:    true,
		Activate:    true,
	})
	require.NoError(t, err)
	require.True(t, first.Active)

	// The partial unique index allows one active global template, so this
	// only succeeds when the first one is deactivated in the same batch
	second, err := svc.admin.CreateTemplate(ctx, certapp.CreateTemplateRequest{
		Name:        "Global B",
		HTMLContent: `<div id="certificate">B {{student_name}}</div>`,
		IsGlobal:    true,
		Activate:    true,
	})
	require.NoError(t, err)
	require.True(t, second.Active)

	firstID := uuid.MustParse(first.ID)
	reloaded, err := svc.admin.GetTemplate(ctx, firstID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)

	preview, err := svc.certs.Preview(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, "Global B", preview.TemplateName)
	assert.Contains(t, preview.HTML, "B Luis Gómez")

	t.Run("course template wins over global", func(t *testing.T) {
		courseID := cert.CourseID
		_, err := svc.admin.CreateTemplate(ctx, certapp.CreateTemplateRequest{
			Name:        "Liderazgo",
			HTMLContent: `<div id="certificate">Curso {{course_title}}</div>`,
			CourseID:    &courseID,
			Activate:    true,
		})
		require.NoError(t, err)

		preview, err := svc.certs.Preview(ctx, cert.ID)
		require.NoError(t, err)
		assert.Equal(t, "Liderazgo", preview.TemplateName)
		assert.Contains(t, preview.HTML, "Curso Liderazgo")
	})

	t.Run("active template cannot be deleted", func(t *testing.T) {
		err := svc.admin.DeleteTemplate(ctx, uuid.MustParse(second.ID))
		require.Error(t, err)
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_STATE", de.Code)
	})

	t.Run("inactive template can be deleted", func(t *testing.T) {
		require.NoError(t, svc.admin.DeleteTemplate(ctx, firstID))
		_, err := svc.admin.GetTemplate(ctx, firstID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSettings_Integration(t *testing.T) {
	tdb := NewSharedTestDB(t)
	svc := newServices(t, tdb)
	ctx := context.Background()

	defaults, err := svc.admin.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, defaults.Persisted)

	profile, err := svc.admin.CreateSignatureProfile(ctx, certapp.CreateSignatureProfileRequest{
		Name:     "Rectora",
		Title:    "Rectoría",
		Filename: "rectora.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "/signatures/rectora.png", profile.URL)

	profileID := uuid.MustParse(profile.ID)
	updated, err := svc.admin.UpdateSettings(ctx, certapp.UpdateSettingsRequest{
		SignerName:                "Dra. Ruiz",
		PrimaryColor:              "#003366",
		DefaultSignatureProfileID: &profileID,
	})
	require.NoError(t, err)
	assert.True(t, updated.Persisted)
	assert.Equal(t, "#003366", updated.PrimaryColor)
	assert.Equal(t, profile.ID, updated.DefaultSignatureProfileID)

	again, err := svc.admin.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, again.Persisted)
	assert.Equal(t, "Dra. Ruiz", again.SignerName)
}
