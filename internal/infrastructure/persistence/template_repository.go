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

// ErrConcurrentModification is returned when a template was changed by someone else
var ErrConcurrentModification = shared.NewDomainError("CONCURRENT_MODIFICATION", "Template was modified by another request")

// GormTemplateRepository implements TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByID finds a template by ID
func (r *GormTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*certificate.Template, error) {
	var model models.CertificateTemplateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCandidates returns active templates for the course or global scope,
// course-scoped first, newest first within each scope
func (r *GormTemplateRepository) FindCandidates(ctx context.Context, courseID uuid.UUID) ([]certificate.Template, error) {
	var templateModels []models.CertificateTemplateModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("course_id = ? OR is_global = ?", courseID, true).
		Order("CASE WHEN course_id IS NULL THEN 1 ELSE 0 END").
		Order("updated_at DESC").
		Find(&templateModels).Error
	if err != nil {
		return nil, err
	}
	return toTemplates(templateModels), nil
}

// FindAll lists templates with filtering and pagination
func (r *GormTemplateRepository) FindAll(ctx context.Context, filter certificate.TemplateFilter) ([]certificate.Template, int64, error) {
	where := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			db = db.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
		}
		if filter.CourseID != nil {
			db = db.Where("course_id = ?", *filter.CourseID)
		}
		if filter.IsGlobal != nil {
			db = db.Where("is_global = ?", *filter.IsGlobal)
		}
		if filter.Active != nil {
			db = db.Where("active = ?", *filter.Active)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CertificateTemplateModel{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templateModels []models.CertificateTemplateModel
	err := r.db.WithContext(ctx).
		Scopes(where).
		Order(orderClause(filter.Filter, TemplateSortFields)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&templateModels).Error
	if err != nil {
		return nil, 0, err
	}
	return toTemplates(templateModels), total, nil
}

// FindActiveInScope returns the other active templates sharing t's scope
func (r *GormTemplateRepository) FindActiveInScope(ctx context.Context, t *certificate.Template) ([]certificate.Template, error) {
	query := r.db.WithContext(ctx).
		Where("active = ? AND id <> ?", true, t.ID)
	if t.IsGlobal {
		query = query.Where("is_global = ?", true)
	} else if t.CourseID != nil {
		query = query.Where("course_id = ?", *t.CourseID)
	} else {
		return nil, nil
	}

	var templateModels []models.CertificateTemplateModel
	if err := query.Find(&templateModels).Error; err != nil {
		return nil, err
	}
	return toTemplates(templateModels), nil
}

// Save inserts a new template or updates an existing one.
// Updates are guarded by the version the template was loaded at.
func (r *GormTemplateRepository) Save(ctx context.Context, t *certificate.Template) error {
	version, err := saveTemplate(r.db.WithContext(ctx), t)
	if err != nil {
		return err
	}
	t.MarkSaved(version)
	return nil
}

// SaveAll saves templates atomically
func (r *GormTemplateRepository) SaveAll(ctx context.Context, templates []*certificate.Template) error {
	versions := make([]int, len(templates))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, t := range templates {
			version, err := saveTemplate(tx, t)
			if err != nil {
				return err
			}
			versions[i] = version
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, t := range templates {
		t.MarkSaved(versions[i])
	}
	return nil
}

// Delete deletes a template by ID
func (r *GormTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CertificateTemplateModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// saveTemplate writes t and returns the version now stored. Unchanged
// templates are not written.
func saveTemplate(db *gorm.DB, t *certificate.Template) (int, error) {
	model := models.CertificateTemplateModelFromDomain(t)

	var exists int64
	if err := db.Model(&models.CertificateTemplateModel{}).Where("id = ?", model.ID).Count(&exists).Error; err != nil {
		return 0, err
	}
	if exists == 0 {
		if err := db.Create(model).Error; err != nil {
			return 0, err
		}
		return model.Version, nil
	}
	if !t.Changed() {
		return t.Version, nil
	}

	model.Version = t.Version + 1
	result := db.Model(&models.CertificateTemplateModel{}).
		Where("id = ? AND version = ?", model.ID, t.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrConcurrentModification
	}
	return model.Version, nil
}

func toTemplates(in []models.CertificateTemplateModel) []certificate.Template {
	out := make([]certificate.Template, len(in))
	for i := range in {
		out[i] = *in[i].ToDomain()
	}
	return out
}

var _ certificate.TemplateRepository = (*GormTemplateRepository)(nil)
