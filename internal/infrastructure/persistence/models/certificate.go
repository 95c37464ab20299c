package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/certificate"
)

// ProfileModel is the GORM model for the profiles table
type ProfileModel struct {
	BaseModel
	FullName string `gorm:"column:full_name;type:varchar(200);not null"`
	Email    string `gorm:"type:varchar(255);not null;index"`
	City     string `gorm:"type:varchar(120)"`
	Role     string `gorm:"type:varchar(30);not null;default:'student'"`
}

// TableName returns the table name for ProfileModel
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts ProfileModel to a certificate Recipient
func (m *ProfileModel) ToDomain() *certificate.Recipient {
	return &certificate.Recipient{
		ProfileID: m.ID,
		FullName:  m.FullName,
		Email:     m.Email,
		City:      m.City,
	}
}

// CourseModel is the GORM model for the courses table
type CourseModel struct {
	BaseModel
	Title string `gorm:"type:varchar(255);not null"`
	Hours int    `gorm:"not null;default:0"`
}

// TableName returns the table name for CourseModel
func (CourseModel) TableName() string {
	return "courses"
}

// ToDomain converts CourseModel to domain Course
func (m *CourseModel) ToDomain() *certificate.Course {
	return &certificate.Course{ID: m.ID, Title: m.Title, Hours: m.Hours}
}

// CertificateModel is the GORM model for the certificates table
type CertificateModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID         uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:idx_certificates_profile_course"`
	CourseID          uuid.UUID `gorm:"column:course_id;type:uuid;not null;uniqueIndex:idx_certificates_profile_course"`
	VerificationCode  string    `gorm:"column:verification_code;type:varchar(64);not null;uniqueIndex"`
	MD5Hash           string    `gorm:"column:md5_hash;type:char(32)"`
	IssuedAt          time.Time `gorm:"column:issued_at;not null"`
	Hours             int       `gorm:"not null;default:0"`
	SignatureFilename string    `gorm:"column:signature_filename;type:varchar(255)"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for CertificateModel
func (CertificateModel) TableName() string {
	return "certificates"
}

// CertificateRow is a certificate joined with its profile and course
type CertificateRow struct {
	CertificateModel
	FullName    string
	Email       string
	City        string
	CourseTitle string
}

// ToDomain converts the joined row to a domain Certificate
func (r *CertificateRow) ToDomain() *certificate.Certificate {
	return &certificate.Certificate{
		ID:                r.ID,
		ProfileID:         r.ProfileID,
		CourseID:          r.CourseID,
		VerificationCode:  r.VerificationCode,
		MD5Hash:           r.MD5Hash,
		IssuedAt:          r.IssuedAt,
		Hours:             r.Hours,
		SignatureFilename: r.SignatureFilename,
		Recipient: certificate.Recipient{
			ProfileID: r.ProfileID,
			FullName:  r.FullName,
			Email:     r.Email,
			City:      r.City,
		},
		CourseTitle: r.CourseTitle,
		CreatedAt:   r.CreatedAt,
	}
}

// CertificateSettingsModel is the GORM model for the certificate_settings table
type CertificateSettingsModel struct {
	BaseModel
	SignerName                string     `gorm:"column:signer_name;type:varchar(200)"`
	SignerTitle               string     `gorm:"column:signer_title;type:varchar(200)"`
	QRBaseURL                 string     `gorm:"column:qr_base_url;type:text"`
	VerificationURL           string     `gorm:"column:verification_url;type:text"`
	LogoURL                   string     `gorm:"column:logo_url;type:text"`
	PrimaryColor              string     `gorm:"column:primary_color;type:varchar(7)"`
	SecondaryColor            string     `gorm:"column:secondary_color;type:varchar(7)"`
	DefaultSignatureProfileID *uuid.UUID `gorm:"column:default_signature_profile_id;type:uuid"`
}

// TableName returns the table name for CertificateSettingsModel
func (CertificateSettingsModel) TableName() string {
	return "certificate_settings"
}

// ToDomain converts CertificateSettingsModel to domain Settings
func (m *CertificateSettingsModel) ToDomain() *certificate.Settings {
	return &certificate.Settings{
		ID:                        m.ID,
		SignerName:                m.SignerName,
		SignerTitle:               m.SignerTitle,
		QRBaseURL:                 m.QRBaseURL,
		VerificationURL:           m.VerificationURL,
		LogoURL:                   m.LogoURL,
		PrimaryColor:              m.PrimaryColor,
		SecondaryColor:            m.SecondaryColor,
		DefaultSignatureProfileID: cloneID(m.DefaultSignatureProfileID),
		UpdatedAt:                 m.UpdatedAt,
	}
}

// CertificateSettingsModelFromDomain creates a model from domain Settings
func CertificateSettingsModelFromDomain(s *certificate.Settings) *CertificateSettingsModel {
	m := &CertificateSettingsModel{
		SignerName:                s.SignerName,
		SignerTitle:               s.SignerTitle,
		QRBaseURL:                 s.QRBaseURL,
		VerificationURL:           s.VerificationURL,
		LogoURL:                   s.LogoURL,
		PrimaryColor:              s.PrimaryColor,
		SecondaryColor:            s.SecondaryColor,
		DefaultSignatureProfileID: cloneID(s.DefaultSignatureProfileID),
	}
	m.ID = s.ID
	m.UpdatedAt = s.UpdatedAt
	return m
}

// CertificateTemplateModel is the GORM model for the certificate_templates table
type CertificateTemplateModel struct {
	VersionedModel
	Name               string     `gorm:"type:varchar(100);not null"`
	CourseID           *uuid.UUID `gorm:"column:course_id;type:uuid;index"`
	IsGlobal           bool       `gorm:"column:is_global;not null;default:false"`
	HTMLContent        string     `gorm:"column:html_content;type:text;not null"`
	SignerName         string     `gorm:"column:signer_name;type:varchar(200)"`
	SignerTitle        string     `gorm:"column:signer_title;type:varchar(200)"`
	SignatureProfileID *uuid.UUID `gorm:"column:signature_profile_id;type:uuid"`
	Active             bool       `gorm:"not null;default:false;index"`
}

// TableName returns the table name for CertificateTemplateModel
func (CertificateTemplateModel) TableName() string {
	return "certificate_templates"
}

// ToDomain converts CertificateTemplateModel to domain Template
func (m *CertificateTemplateModel) ToDomain() *certificate.Template {
	return &certificate.Template{
		Versioned:          m.versioned(),
		Name:               m.Name,
		CourseID:           cloneID(m.CourseID),
		IsGlobal:           m.IsGlobal,
		HTMLContent:        m.HTMLContent,
		SignerName:         m.SignerName,
		SignerTitle:        m.SignerTitle,
		SignatureProfileID: cloneID(m.SignatureProfileID),
		Active:             m.Active,
	}
}

// CertificateTemplateModelFromDomain creates a model from domain Template
func CertificateTemplateModelFromDomain(t *certificate.Template) *CertificateTemplateModel {
	m := &CertificateTemplateModel{
		Name:               t.Name,
		CourseID:           cloneID(t.CourseID),
		IsGlobal:           t.IsGlobal,
		HTMLContent:        t.HTMLContent,
		SignerName:         t.SignerName,
		SignerTitle:        t.SignerTitle,
		SignatureProfileID: cloneID(t.SignatureProfileID),
		Active:             t.Active,
	}
	m.setVersioned(t.Versioned)
	return m
}

// SignatureProfileModel is the GORM model for the signature_profiles table
type SignatureProfileModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null"`
	Title    string `gorm:"type:varchar(200)"`
	Filename string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for SignatureProfileModel
func (SignatureProfileModel) TableName() string {
	return "signature_profiles"
}

// ToDomain converts SignatureProfileModel to domain SignatureProfile
func (m *SignatureProfileModel) ToDomain() *certificate.SignatureProfile {
	return &certificate.SignatureProfile{
		Entity:   m.entity(),
		Name:     m.Name,
		Title:    m.Title,
		Filename: m.Filename,
	}
}

// SignatureProfileModelFromDomain creates a model from domain SignatureProfile
func SignatureProfileModelFromDomain(p *certificate.SignatureProfile) *SignatureProfileModel {
	m := &SignatureProfileModel{
		Name:     p.Name,
		Title:    p.Title,
		Filename: p.Filename,
	}
	m.setEntity(p.Entity)
	return m
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&ProfileModel{},
		&CourseModel{},
		&CertificateModel{},
		&SignatureProfileModel{},
		&CertificateSettingsModel{},
		&CertificateTemplateModel{},
	}
}
