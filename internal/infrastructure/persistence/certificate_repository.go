package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const certificateSelect = "c.*, p.full_name, p.email, p.city, co.title AS course_title"

// GormCertificateRepository implements CertificateRepository using GORM
type GormCertificateRepository struct {
	db *gorm.DB
}

// NewGormCertificateRepository creates a new GormCertificateRepository
func NewGormCertificateRepository(db *gorm.DB) *GormCertificateRepository {
	return &GormCertificateRepository{db: db}
}

// FindByID finds a certificate joined with its recipient and course
func (r *GormCertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*certificate.Certificate, error) {
	return r.findOne(ctx, "c.id = ?", id)
}

// FindByVerificationCode finds a certificate by its public code, ignoring case and surrounding spaces
func (r *GormCertificateRepository) FindByVerificationCode(ctx context.Context, code string) (*certificate.Certificate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "UPPER(c.verification_code) = ?", strings.ToUpper(code))
}

func (r *GormCertificateRepository) findOne(ctx context.Context, where string, arg any) (*certificate.Certificate, error) {
	var rows []models.CertificateRow
	err := r.db.WithContext(ctx).
		Table("certificates AS c").
		Select(certificateSelect).
		Joins("LEFT JOIN profiles AS p ON p.id = c.profile_id").
		Joins("LEFT JOIN courses AS co ON co.id = c.course_id").
		Where(where, arg).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return rows[0].ToDomain(), nil
}

// GormProfileRepository implements ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByID finds a profile by ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*certificate.Recipient, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormCourseRepository implements CourseRepository using GORM
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindByID finds a course by ID
func (r *GormCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*certificate.Course, error) {
	var model models.CourseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ certificate.CertificateRepository = (*GormCertificateRepository)(nil)
	_ certificate.ProfileRepository     = (*GormProfileRepository)(nil)
	_ certificate.CourseRepository      = (*GormCourseRepository)(nil)
)
