package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindActive returns the most recently updated settings row
func (r *GormSettingsRepository) FindActive(ctx context.Context) (*certificate.Settings, error) {
	var model models.CertificateSettingsModel
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts a new row when settings has no ID, otherwise updates it
func (r *GormSettingsRepository) Save(ctx context.Context, settings *certificate.Settings) error {
	now := time.Now()
	model := models.CertificateSettingsModelFromDomain(settings)
	model.UpdatedAt = now

	if model.ID == uuid.Nil {
		model.ID = uuid.New()
		model.CreatedAt = now
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return err
		}
	} else {
		// Select("*") so blank fields are written back as blank
		result := r.db.WithContext(ctx).
			Model(model).
			Select("*").
			Omit("created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
	}

	settings.ID = model.ID
	settings.UpdatedAt = now
	return nil
}

var _ certificate.SettingsRepository = (*GormSettingsRepository)(nil)
