package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"go.uber.org/zap"
)

// AdminService manages templates, branding settings and signature profiles
type AdminService struct {
	templates  domain.TemplateRepository
	settings   domain.SettingsRepository
	signatures domain.SignatureProfileRepository
	courses    domain.CourseRepository
	urls       SignatureURLResolver
	logger     *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	templates domain.TemplateRepository,
	settings domain.SettingsRepository,
	signatures domain.SignatureProfileRepository,
	courses domain.CourseRepository,
	urls SignatureURLResolver,
	logger *zap.Logger,
) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		templates:  templates,
		settings:   settings,
		signatures: signatures,
		courses:    courses,
		urls:       urls,
		logger:     logger,
	}
}

// =============================================================================
// Templates
// =============================================================================

// ListTemplates lists templates without their markup
func (s *AdminService) ListTemplates(ctx context.Context, req ListTemplatesRequest) (*ListTemplatesResponse, error) {
	filter := domain.TemplateFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   strings.TrimSpace(req.Search),
		},
		IsGlobal: req.IsGlobal,
		Active:   req.Active,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if req.CourseID != "" {
		id, err := uuid.Parse(req.CourseID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid course ID")
		}
		filter.CourseID = &id
	}

	templates, total, err := s.templates.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	items := make([]TemplateResponse, len(templates))
	for i := range templates {
		items[i] = ToTemplateResponse(&templates[i], false)
	}
	return &ListTemplatesResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// GetTemplate returns a template with its markup
func (s *AdminService) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	t, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTemplateResponse(t, true)
	return &resp, nil
}

// CreateTemplate creates a template, optionally activating it
func (s *AdminService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error) {
	if req.CourseID != nil && *req.CourseID == uuid.Nil {
		req.CourseID = nil
	}
	if req.CourseID != nil {
		if err := s.ensureCourse(ctx, *req.CourseID); err != nil {
			return nil, err
		}
	}
	if err := s.ensureSignatureProfile(ctx, req.SignatureProfileID); err != nil {
		return nil, err
	}

	t, err := domain.NewTemplate(req.Name, req.HTMLContent, req.CourseID, req.IsGlobal)
	if err != nil {
		return nil, err
	}
	if req.SignerName != "" || req.SignerTitle != "" || req.SignatureProfileID != nil {
		t.SetSigner(req.SignerName, req.SignerTitle, req.SignatureProfileID)
	}

	if req.Activate {
		if err := s.activate(ctx, t); err != nil {
			return nil, err
		}
	} else if err := s.templates.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("Certificate template created",
		zap.String("template_id", t.ID.String()),
		zap.String("name", t.Name),
		zap.Bool("global", t.IsGlobal),
		zap.Bool("active", t.Active),
	)
	resp := ToTemplateResponse(t, true)
	return &resp, nil
}

// UpdateTemplate changes a template's markup or signer
func (s *AdminService) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*TemplateResponse, error) {
	t, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.HTMLContent != nil {
		name, content := t.Name, t.HTMLContent
		if req.Name != nil {
			name = *req.Name
		}
		if req.HTMLContent != nil {
			content = *req.HTMLContent
		}
		if err := t.UpdateContent(name, content); err != nil {
			return nil, err
		}
	}

	if req.SignerName != nil || req.SignerTitle != nil || req.SignatureProfileID != nil || req.ClearSignature {
		signerName, signerTitle, profileID := t.SignerName, t.SignerTitle, t.SignatureProfileID
		if req.SignerName != nil {
			signerName = *req.SignerName
		}
		if req.SignerTitle != nil {
			signerTitle = *req.SignerTitle
		}
		if req.SignatureProfileID != nil {
			if err := s.ensureSignatureProfile(ctx, req.SignatureProfileID); err != nil {
				return nil, err
			}
			profileID = req.SignatureProfileID
		}
		if req.ClearSignature {
			profileID = nil
		}
		t.SetSigner(signerName, signerTitle, profileID)
	}

	if err := s.templates.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("Certificate template updated",
		zap.String("template_id", t.ID.String()),
		zap.Int("version", t.Version),
	)
	resp := ToTemplateResponse(t, true)
	return &resp, nil
}

// ActivateTemplate makes a template the active one of its scope
func (s *AdminService) ActivateTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	t, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.activate(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Certificate template activated", zap.String("template_id", t.ID.String()))
	resp := ToTemplateResponse(t, false)
	return &resp, nil
}

// DeactivateTemplate removes a template from selection
func (s *AdminService) DeactivateTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	t, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.templates.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("Certificate template deactivated", zap.String("template_id", t.ID.String()))
	resp := ToTemplateResponse(t, false)
	return &resp, nil
}

// DeleteTemplate deletes an inactive template
func (s *AdminService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	t, err := s.findTemplate(ctx, id)
	if err != nil {
		return err
	}
	if t.Active {
		return shared.NewDomainError("INVALID_STATE", "Deactivate the template before deleting it")
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.logger.Info("Certificate template deleted", zap.String("template_id", id.String()))
	return nil
}

// activate deactivates every competitor in the scope, then activates t,
// in one transaction. Deactivations are written first so the partial
// unique index never sees two active rows.
func (s *AdminService) activate(ctx context.Context, t *domain.Template) error {
	if err := t.Activate(); err != nil {
		return err
	}

	competitors, err := s.templates.FindActiveInScope(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to load active templates: %w", err)
	}

	batch := make([]*domain.Template, 0, len(competitors)+1)
	for i := range competitors {
		c := &competitors[i]
		if c.ID == t.ID {
			continue
		}
		if err := c.Deactivate(); err != nil {
			return err
		}
		batch = append(batch, c)
	}
	batch = append(batch, t)

	if err := s.templates.SaveAll(ctx, batch); err != nil {
		return fmt.Errorf("failed to activate template: %w", err)
	}
	if len(batch) > 1 {
		s.logger.Info("Deactivated competing templates",
			zap.String("template_id", t.ID.String()),
			zap.Int("count", len(batch)-1),
		)
	}
	return nil
}

func (s *AdminService) findTemplate(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Template ID is required")
	}
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Template not found")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (s *AdminService) ensureCourse(ctx context.Context, id uuid.UUID) error {
	if s.courses == nil {
		return nil
	}
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Course not found")
		}
		return fmt.Errorf("failed to get course: %w", err)
	}
	return nil
}

func (s *AdminService) ensureSignatureProfile(ctx context.Context, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	if _, err := s.signatures.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Signature profile not found")
		}
		return fmt.Errorf("failed to get signature profile: %w", err)
	}
	return nil
}

// =============================================================================
// Settings
// =============================================================================

// GetSettings returns the effective branding settings
func (s *AdminService) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	stored, err := s.settings.FindActive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			resp := ToSettingsResponse(domain.DefaultSettings(), false)
			return &resp, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	resp := ToSettingsResponse(domain.ResolveSettings(stored), true)
	return &resp, nil
}

// UpdateSettings stores the branding settings, creating the row on first use
func (s *AdminService) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*SettingsResponse, error) {
	stored, err := s.settings.FindActive(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		stored = &domain.Settings{ID: uuid.New()}
	}

	if req.DefaultSignatureProfileID != nil && *req.DefaultSignatureProfileID == uuid.Nil {
		req.DefaultSignatureProfileID = nil
	}
	if err := s.ensureSignatureProfile(ctx, req.DefaultSignatureProfileID); err != nil {
		return nil, err
	}

	stored.SignerName = strings.TrimSpace(req.SignerName)
	stored.SignerTitle = strings.TrimSpace(req.SignerTitle)
	stored.QRBaseURL = strings.TrimSpace(req.QRBaseURL)
	stored.VerificationURL = strings.TrimSpace(req.VerificationURL)
	stored.LogoURL = strings.TrimSpace(req.LogoURL)
	stored.PrimaryColor = strings.TrimSpace(req.PrimaryColor)
	stored.SecondaryColor = strings.TrimSpace(req.SecondaryColor)
	stored.DefaultSignatureProfileID = req.DefaultSignatureProfileID
	if err := stored.Validate(); err != nil {
		return nil, err
	}

	if err := s.settings.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("Certificate settings updated", zap.String("settings_id", stored.ID.String()))
	resp := ToSettingsResponse(domain.ResolveSettings(stored), true)
	return &resp, nil
}

// =============================================================================
// Signature profiles
// =============================================================================

// ListSignatureProfiles lists signature profiles with resolved image URLs
func (s *AdminService) ListSignatureProfiles(ctx context.Context, req ListSignatureProfilesRequest) (*ListSignatureProfilesResponse, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.Search = strings.TrimSpace(req.Search)

	profiles, total, err := s.signatures.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list signature profiles: %w", err)
	}

	items := make([]SignatureProfileResponse, len(profiles))
	for i := range profiles {
		items[i] = s.toSignatureProfileResponse(ctx, &profiles[i])
	}
	return &ListSignatureProfilesResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// GetSignatureProfile returns one signature profile
func (s *AdminService) GetSignatureProfile(ctx context.Context, id uuid.UUID) (*SignatureProfileResponse, error) {
	p, err := s.signatures.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Signature profile not found")
		}
		return nil, fmt.Errorf("failed to get signature profile: %w", err)
	}
	resp := s.toSignatureProfileResponse(ctx, p)
	return &resp, nil
}

// CreateSignatureProfile registers a signature image already uploaded to storage
func (s *AdminService) CreateSignatureProfile(ctx context.Context, req CreateSignatureProfileRequest) (*SignatureProfileResponse, error) {
	p, err := domain.NewSignatureProfile(req.Name, req.Title, req.Filename)
	if err != nil {
		return nil, err
	}
	if err := s.signatures.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save signature profile: %w", err)
	}

	s.logger.Info("Signature profile created",
		zap.String("signature_profile_id", p.ID.String()),
		zap.String("filename", p.Filename),
	)
	resp := s.toSignatureProfileResponse(ctx, p)
	return &resp, nil
}

func (s *AdminService) toSignatureProfileResponse(ctx context.Context, p *domain.SignatureProfile) SignatureProfileResponse {
	resp := SignatureProfileResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Title:     p.Title,
		Filename:  p.Filename,
		CreatedAt: p.CreatedAt,
	}
	if s.urls != nil {
		if url, err := s.urls.SignatureURL(ctx, p.Filename); err == nil {
			resp.URL = url
		} else {
			s.logger.Debug("Failed to resolve signature URL", zap.String("filename", p.Filename), zap.Error(err))
		}
	}
	return resp
}
