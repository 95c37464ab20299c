package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSignatureProfileRepository implements SignatureProfileRepository using GORM
type GormSignatureProfileRepository struct {
	db *gorm.DB
}

// NewGormSignatureProfileRepository creates a new GormSignatureProfileRepository
func NewGormSignatureProfileRepository(db *gorm.DB) *GormSignatureProfileRepository {
	return &GormSignatureProfileRepository{db: db}
}

// FindByID finds a signature profile by ID
func (r *GormSignatureProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*certificate.SignatureProfile, error) {
	var model models.SignatureProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists signature profiles
func (r *GormSignatureProfileRepository) FindAll(ctx context.Context, filter shared.Filter) ([]certificate.SignatureProfile, int64, error) {
	where := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			db = db.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SignatureProfileModel{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profileModels []models.SignatureProfileModel
	err := r.db.WithContext(ctx).
		Scopes(where).
		Order(orderClause(filter, SignatureProfileSortFields)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&profileModels).Error
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]certificate.SignatureProfile, len(profileModels))
	for i := range profileModels {
		profiles[i] = *profileModels[i].ToDomain()
	}
	return profiles, total, nil
}

// Save inserts or updates a signature profile
func (r *GormSignatureProfileRepository) Save(ctx context.Context, p *certificate.SignatureProfile) error {
	return r.db.WithContext(ctx).Save(models.SignatureProfileModelFromDomain(p)).Error
}

var _ certificate.SignatureProfileRepository = (*GormSignatureProfileRepository)(nil)
