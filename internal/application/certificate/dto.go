package certificate

import (
	"time"

	"github.com/google/uuid"
	domain "github.com/udes/eexchange/internal/domain/certificate"
)

// =============================================================================
// Render DTOs
// =============================================================================

// PreviewResponse is the rendered certificate page with its resolution details
type PreviewResponse struct {
	CertificateID    string   `json:"certificate_id"`
	Filename         string   `json:"filename"`
	HTML             string   `json:"html"`
	TemplateName     string   `json:"template_name"`
	TemplateVersion  int      `json:"template_version"`
	SignatureSource  string   `json:"signature_source,omitempty"`
	VerificationURL  string   `json:"verification_url,omitempty"`
	HasQR            bool     `json:"has_qr"`
	UnresolvedTokens []string `json:"unresolved_tokens,omitempty"`
}

// VerificationResponse reports whether a verification code belongs to an issued certificate
type VerificationResponse struct {
	Valid            bool       `json:"valid"`
	VerificationCode string     `json:"verification_code"`
	HashMatches      bool       `json:"hash_matches"`
	RecipientName    string     `json:"recipient_name,omitempty"`
	CourseTitle      string     `json:"course_title,omitempty"`
	IssuedDate       string     `json:"issued_date,omitempty"`
	IssuedAt         *time.Time `json:"issued_at,omitempty"`
	Hours            int        `json:"hours,omitempty"`
}

// =============================================================================
// Template DTOs
// =============================================================================

// CreateTemplateRequest represents a request to create a certificate template
type CreateTemplateRequest struct {
	Name               string     `json:"name" binding:"required,min=1,max=100"`
	HTMLContent        string     `json:"html_content" binding:"required"`
	CourseID           *uuid.UUID `json:"course_id"`
	IsGlobal           bool       `json:"is_global"`
	SignerName         string     `json:"signer_name" binding:"max=200"`
	SignerTitle        string     `json:"signer_title" binding:"max=200"`
	SignatureProfileID *uuid.UUID `json:"signature_profile_id"`
	Activate           bool       `json:"activate"`
}

// UpdateTemplateRequest represents a request to update a certificate template
type UpdateTemplateRequest struct {
	Name               *string    `json:"name" binding:"omitempty,min=1,max=100"`
	HTMLContent        *string    `json:"html_content"`
	SignerName         *string    `json:"signer_name" binding:"omitempty,max=200"`
	SignerTitle        *string    `json:"signer_title" binding:"omitempty,max=200"`
	SignatureProfileID *uuid.UUID `json:"signature_profile_id"`
	ClearSignature     bool       `json:"clear_signature"`
}

// ListTemplatesRequest represents a request to list templates
type ListTemplatesRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	IsGlobal *bool  `form:"is_global"`
	Active   *bool  `form:"active"`
}

// TemplateResponse represents a certificate template
type TemplateResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CourseID           string    `json:"course_id,omitempty"`
	IsGlobal           bool      `json:"is_global"`
	HTMLContent        string    `json:"html_content,omitempty"`
	SignerName         string    `json:"signer_name,omitempty"`
	SignerTitle        string    `json:"signer_title,omitempty"`
	SignatureProfileID string    `json:"signature_profile_id,omitempty"`
	Active             bool      `json:"active"`
	Version            int       `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ListTemplatesResponse represents a paginated list of templates
type ListTemplatesResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// ToTemplateResponse converts a domain template; withContent includes the markup
func ToTemplateResponse(t *domain.Template, withContent bool) TemplateResponse {
	resp := TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		IsGlobal:    t.IsGlobal,
		SignerName:  t.SignerName,
		SignerTitle: t.SignerTitle,
		Active:      t.Active,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.CourseID != nil {
		resp.CourseID = t.CourseID.String()
	}
	if t.SignatureProfileID != nil {
		resp.SignatureProfileID = t.SignatureProfileID.String()
	}
	if withContent {
		resp.HTMLContent = t.HTMLContent
	}
	return resp
}

// =============================================================================
// Settings DTOs
// =============================================================================

// UpdateSettingsRequest replaces the certificate branding.
// Blank fields fall back to the built-in defaults at render time.
type UpdateSettingsRequest struct {
	SignerName                string     `json:"signer_name" binding:"max=200"`
	SignerTitle               string     `json:"signer_title" binding:"max=200"`
	QRBaseURL                 string     `json:"qr_base_url" binding:"omitempty,url"`
	VerificationURL           string     `json:"verification_url" binding:"omitempty,url"`
	LogoURL                   string     `json:"logo_url" binding:"max=2048"`
	PrimaryColor              string     `json:"primary_color" binding:"omitempty,brand_color"`
	SecondaryColor            string     `json:"secondary_color" binding:"omitempty,brand_color"`
	DefaultSignatureProfileID *uuid.UUID `json:"default_signature_profile_id"`
}

// SettingsResponse is the effective branding plus whether a row is stored
type SettingsResponse struct {
	Persisted                 bool       `json:"persisted"`
	SignerName                string     `json:"signer_name"`
	SignerTitle               string     `json:"signer_title"`
	QRBaseURL                 string     `json:"qr_base_url"`
	VerificationURL           string     `json:"verification_url"`
	LogoURL                   string     `json:"logo_url"`
	PrimaryColor              string     `json:"primary_color"`
	SecondaryColor            string     `json:"secondary_color"`
	DefaultSignatureProfileID string     `json:"default_signature_profile_id,omitempty"`
	UpdatedAt                 *time.Time `json:"updated_at,omitempty"`
}

// ToSettingsResponse converts resolved settings
func ToSettingsResponse(s domain.Settings, persisted bool) SettingsResponse {
	resp := SettingsResponse{
		Persisted:       persisted,
		SignerName:      s.SignerName,
		SignerTitle:     s.SignerTitle,
		QRBaseURL:       s.QRBaseURL,
		VerificationURL: s.VerificationURL,
		LogoURL:         s.LogoURL,
		PrimaryColor:    s.PrimaryColor,
		SecondaryColor:  s.SecondaryColor,
	}
	if s.DefaultSignatureProfileID != nil {
		resp.DefaultSignatureProfileID = s.DefaultSignatureProfileID.String()
	}
	if persisted && !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// =============================================================================
// Signature profile DTOs
// =============================================================================

// CreateSignatureProfileRequest registers an uploaded signature image
type CreateSignatureProfileRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Title    string `json:"title" binding:"max=200"`
	Filename string `json:"filename" binding:"required,max=255"`
}

// ListSignatureProfilesRequest represents a request to list signature profiles
type ListSignatureProfilesRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
}

// SignatureProfileResponse represents a signature profile
type SignatureProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSignatureProfilesResponse represents a paginated list of signature profiles
type ListSignatureProfilesResponse struct {
	Items []SignatureProfileResponse `json:"items"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Size  int                        `json:"size"`
}
