package certificate

import (
	"context"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/shared"
)

// CertificateRepository reads issued certificates
type CertificateRepository interface {
	// FindByID finds a certificate with its denormalized recipient and course fields
	FindByID(ctx context.Context, id uuid.UUID) (*Certificate, error)

	// FindByVerificationCode finds a certificate by its public code
	FindByVerificationCode(ctx context.Context, code string) (*Certificate, error)
}

// ProfileRepository reads recipient profiles
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Recipient, error)
}

// CourseRepository reads course titles
type CourseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Course, error)
}

// SettingsRepository persists the certificate settings row
type SettingsRepository interface {
	// FindActive returns the most recently updated settings row.
	// Returns shared.ErrNotFound when no row exists.
	FindActive(ctx context.Context) (*Settings, error)

	// Save inserts or updates the settings row
	Save(ctx context.Context, settings *Settings) error
}

// TemplateRepository persists certificate templates
type TemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)

	// FindCandidates returns active templates scoped to courseID or global,
	// ordered course-scoped first then newest first
	FindCandidates(ctx context.Context, courseID uuid.UUID) ([]Template, error)

	// FindAll lists templates with optional filtering
	FindAll(ctx context.Context, filter TemplateFilter) ([]Template, int64, error)

	// FindActiveInScope returns the active templates competing with t for the same scope
	FindActiveInScope(ctx context.Context, t *Template) ([]Template, error)

	Save(ctx context.Context, t *Template) error

	// SaveAll saves several templates in one transaction
	SaveAll(ctx context.Context, templates []*Template) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// SignatureProfileRepository persists signature profiles
type SignatureProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SignatureProfile, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SignatureProfile, int64, error)
	Save(ctx context.Context, p *SignatureProfile) error
}

// TemplateFilter extends the standard filter with template criteria
type TemplateFilter struct {
	shared.Filter
	CourseID *uuid.UUID
	IsGlobal *bool
	Active   *bool
}
