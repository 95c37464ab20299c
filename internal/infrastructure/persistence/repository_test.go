package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedCertificate(t *testing.T, db *gorm.DB, code string) (models.ProfileModel, models.CourseModel, models.CertificateModel) {
	t.Helper()
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

	profile := models.ProfileModel{FullName: "Ana Pérez", Email: "ana@example.com", City: "Asunción"}
	profile.ID, profile.CreatedAt, profile.UpdatedAt = uuid.New(), now, now
	require.NoError(t, db.Create(&profile).Error)

	course := models.CourseModel{Title: "Gestión de Proyectos", Hours: 40}
	course.ID, course.CreatedAt, course.UpdatedAt = uuid.New(), now, now
	require.NoError(t, db.Create(&course).Error)

	cert := models.CertificateModel{
		ID:               uuid.New(),
		ProfileID:        profile.ID,
		CourseID:         course.ID,
		VerificationCode: code,
		MD5Hash:          "abc",
		IssuedAt:         now,
		Hours:            40,
		CreatedAt:        now,
	}
	require.NoError(t, db.Create(&cert).Error)
	return profile, course, cert
}

func TestGormCertificateRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCertificateRepository(db)
	ctx := context.Background()
	profile, course, cert := seedCertificate(t, db, "CERT-0001")

	t.Run("FindByID joins recipient and course", func(t *testing.T) {
		got, err := repo.FindByID(ctx, cert.ID)
		require.NoError(t, err)
		assert.Equal(t, "CERT-0001", got.VerificationCode)
		assert.Equal(t, profile.ID, got.Recipient.ProfileID)
		assert.Equal(t, "Ana Pérez", got.Recipient.FullName)
		assert.Equal(t, "Asunción", got.Recipient.City)
		assert.Equal(t, course.Title, got.CourseTitle)
		assert.Equal(t, 40, got.Hours)
		assert.True(t, got.IssuedAt.Equal(cert.IssuedAt))
	})

	t.Run("FindByVerificationCode ignores case and spaces", func(t *testing.T) {
		got, err := repo.FindByVerificationCode(ctx, "  cert-0001 ")
		require.NoError(t, err)
		assert.Equal(t, cert.ID, got.ID)
	})

	t.Run("unknown certificate is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByVerificationCode(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("certificate without profile row still loads", func(t *testing.T) {
		orphan := models.CertificateModel{
			ID:               uuid.New(),
			ProfileID:        uuid.New(),
			CourseID:         course.ID,
			VerificationCode: "CERT-0002",
			IssuedAt:         time.Now(),
			CreatedAt:        time.Now(),
		}
		require.NoError(t, db.Create(&orphan).Error)

		got, err := repo.FindByID(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Recipient.FullName)
		assert.Equal(t, course.Title, got.CourseTitle)
	})
}

func TestGormProfileAndCourseRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	profile, course, _ := seedCertificate(t, db, "CERT-0003")

	recipient, err := NewGormProfileRepository(db).FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", recipient.Email)

	_, err = NewGormProfileRepository(db).FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	c, err := NewGormCourseRepository(db).FindByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Hours)

	_, err = NewGormCourseRepository(db).FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSettingsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.FindActive(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	settings := &certificate.Settings{SignerName: "Rectorado", PrimaryColor: "#112233"}
	require.NoError(t, repo.Save(ctx, settings))
	require.NotEqual(t, uuid.Nil, settings.ID)

	got, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rectorado", got.SignerName)
	assert.Nil(t, got.DefaultSignatureProfileID)

	profileID := uuid.New()
	got.SignerName = ""
	got.DefaultSignatureProfileID = &profileID
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
	assert.Empty(t, again.SignerName)
	require.NotNil(t, again.DefaultSignatureProfileID)
	assert.Equal(t, profileID, *again.DefaultSignatureProfileID)

	missing := &certificate.Settings{ID: uuid.New()}
	assert.ErrorIs(t, repo.Save(ctx, missing), shared.ErrNotFound)
}

func newTemplate(t *testing.T, name string, courseID *uuid.UUID, active bool) *certificate.Template {
	t.Helper()
	tpl, err := certificate.NewTemplate(name, "<p>{{student_name}}</p>", courseID, courseID == nil)
	require.NoError(t, err)
	if active {
		require.NoError(t, tpl.Activate())
	}
	return tpl
}

func TestGormTemplateRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTemplateRepository(db)
	ctx := context.Background()

	courseID := uuid.New()
	otherCourse := uuid.New()

	global := newTemplate(t, "Global", nil, true)
	scoped := newTemplate(t, "Curso", &courseID, true)
	inactive := newTemplate(t, "Borrador", &courseID, false)
	foreign := newTemplate(t, "Otro curso", &otherCourse, true)
	require.NoError(t, repo.SaveAll(ctx, []*certificate.Template{global, scoped, inactive, foreign}))

	t.Run("FindCandidates orders course scope first", func(t *testing.T) {
		got, err := repo.FindCandidates(ctx, courseID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, scoped.ID, got[0].ID)
		assert.Equal(t, global.ID, got[1].ID)

		selected := certificate.SelectTemplate(got, courseID)
		require.NotNil(t, selected)
		assert.Equal(t, scoped.ID, selected.ID)
	})

	t.Run("FindByID round trips scope and signer", func(t *testing.T) {
		profileID := uuid.New()
		scoped.SetSigner("Decana", "Facultad", &profileID)
		require.NoError(t, repo.Save(ctx, scoped))

		got, err := repo.FindByID(ctx, scoped.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CourseID)
		assert.Equal(t, courseID, *got.CourseID)
		assert.Equal(t, "Decana", got.SignerName)
		require.NotNil(t, got.SignatureProfileID)
		assert.Equal(t, profileID, *got.SignatureProfileID)
		assert.Equal(t, scoped.Version, got.Version)
	})

	t.Run("stale writes are rejected", func(t *testing.T) {
		a, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)

		require.NoError(t, a.UpdateContent("Global v2", "<p>a</p>"))
		require.NoError(t, repo.Save(ctx, a))

		require.NoError(t, b.UpdateContent("Global v2b", "<p>b</p>"))
		assert.ErrorIs(t, repo.Save(ctx, b), ErrConcurrentModification)
	})

	t.Run("stale copy with several edits is rejected", func(t *testing.T) {
		a, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)

		require.NoError(t, a.UpdateContent("Global renombrada", a.HTMLContent))
		require.NoError(t, repo.Save(ctx, a))

		require.NoError(t, b.UpdateContent(b.Name, "<p>b</p>"))
		b.SetSigner("Rector", "", nil)
		assert.ErrorIs(t, repo.Save(ctx, b), ErrConcurrentModification)

		got, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		assert.Equal(t, "Global renombrada", got.Name)
		assert.Equal(t, a.Version, got.Version)
	})

	t.Run("saving an unchanged template is a no-op", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		version := loaded.Version

		require.NoError(t, repo.Save(ctx, loaded))
		require.NoError(t, repo.Save(ctx, loaded))

		got, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		assert.Equal(t, version, got.Version)
	})

	t.Run("each save bumps the version once", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, global.ID)
		require.NoError(t, err)
		version := loaded.Version

		require.NoError(t, loaded.UpdateContent("Global final", "<p>c</p>"))
		loaded.SetSigner("Decana", "", nil)
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, version+1, loaded.Version)
		assert.False(t, loaded.Changed())

		loaded.SetSigner("Decana", "Facultad", nil)
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, version+2, loaded.Version)
	})

	t.Run("FindActiveInScope excludes self and other scopes", func(t *testing.T) {
		got, err := repo.FindActiveInScope(ctx, inactive)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, scoped.ID, got[0].ID)

		got, err = repo.FindActiveInScope(ctx, global)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FindAll filters and paginates", func(t *testing.T) {
		active := true
		f := certificate.TemplateFilter{Filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "name", OrderDir: "asc"}, Active: &active}
		got, total, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 2)
		assert.Equal(t, "Curso", got[0].Name)

		f = certificate.TemplateFilter{Filter: shared.Filter{Search: "borr"}, CourseID: &courseID}
		got, total, err = repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, inactive.ID, got[0].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, foreign.ID))
		assert.ErrorIs(t, repo.Delete(ctx, foreign.ID), shared.ErrNotFound)
		_, err := repo.FindByID(ctx, foreign.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSignatureProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSignatureProfileRepository(db)
	ctx := context.Background()

	director, err := certificate.NewSignatureProfile("Directora", "Dirección Académica", "firmas/directora.png")
	require.NoError(t, err)
	dean, err := certificate.NewSignatureProfile("Decano", "Facultad", "firmas/decano.png")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, director))
	require.NoError(t, repo.Save(ctx, dean))

	got, err := repo.FindByID(ctx, director.ID)
	require.NoError(t, err)
	assert.Equal(t, "firmas/directora.png", got.Filename)

	list, total, err := repo.FindAll(ctx, shared.Filter{Search: "dec"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, dean.ID, list[0].ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
