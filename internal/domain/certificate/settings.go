package certificate

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/shared"
)

// Default branding values used when no settings record exists or a field is blank
const (
	DefaultSignerName      = "Dirección Académica"
	DefaultSignerTitle     = "Universidad de Especialidades"
	DefaultQRBaseURL       = "https://udesvirtual.com/verificar-certificado"
	DefaultVerificationURL = "https://udesvirtual.com/verificar-certificado"
	DefaultLogoURL         = "/logo-udes.png"
	DefaultPrimaryColor    = "#052c4e"
	DefaultSecondaryColor  = "#f5a800"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Settings holds the global certificate branding.
// At most one row is consulted per render.
type Settings struct {
	ID                        uuid.UUID
	SignerName                string
	SignerTitle               string
	QRBaseURL                 string
	VerificationURL           string
	LogoURL                   string
	PrimaryColor              string
	SecondaryColor            string
	DefaultSignatureProfileID *uuid.UUID
	UpdatedAt                 time.Time
}

// DefaultSettings returns the hard-coded settings record
func DefaultSettings() Settings {
	return Settings{
		SignerName:      DefaultSignerName,
		SignerTitle:     DefaultSignerTitle,
		QRBaseURL:       DefaultQRBaseURL,
		VerificationURL: DefaultVerificationURL,
		LogoURL:         DefaultLogoURL,
		PrimaryColor:    DefaultPrimaryColor,
		SecondaryColor:  DefaultSecondaryColor,
	}
}

// ResolveSettings merges a fetched settings record onto the defaults.
// Blank fields of fetched fall back to the default value; a nil record
// yields the defaults unchanged.
func ResolveSettings(fetched *Settings) Settings {
	resolved := DefaultSettings()
	if fetched == nil {
		return resolved
	}

	resolved.ID = fetched.ID
	resolved.UpdatedAt = fetched.UpdatedAt
	resolved.SignerName = firstNonBlank(fetched.SignerName, resolved.SignerName)
	resolved.SignerTitle = firstNonBlank(fetched.SignerTitle, resolved.SignerTitle)
	resolved.QRBaseURL = firstNonBlank(fetched.QRBaseURL, resolved.QRBaseURL)
	resolved.VerificationURL = firstNonBlank(fetched.VerificationURL, resolved.VerificationURL)
	resolved.LogoURL = firstNonBlank(fetched.LogoURL, resolved.LogoURL)
	if IsHexColor(fetched.PrimaryColor) {
		resolved.PrimaryColor = fetched.PrimaryColor
	}
	if IsHexColor(fetched.SecondaryColor) {
		resolved.SecondaryColor = fetched.SecondaryColor
	}
	if fetched.DefaultSignatureProfileID != nil && *fetched.DefaultSignatureProfileID != uuid.Nil {
		id := *fetched.DefaultSignatureProfileID
		resolved.DefaultSignatureProfileID = &id
	}
	return resolved
}

// Validate checks the fields an administrator can edit
func (s *Settings) Validate() error {
	if s.PrimaryColor != "" && !IsHexColor(s.PrimaryColor) {
		return shared.NewDomainError("INVALID_COLOR", "Primary color must be a hex color")
	}
	if s.SecondaryColor != "" && !IsHexColor(s.SecondaryColor) {
		return shared.NewDomainError("INVALID_COLOR", "Secondary color must be a hex color")
	}
	if len(strings.TrimSpace(s.SignerName)) > 200 {
		return shared.NewDomainError("INVALID_SIGNER", "Signer name cannot exceed 200 characters")
	}
	if len(strings.TrimSpace(s.SignerTitle)) > 200 {
		return shared.NewDomainError("INVALID_SIGNER", "Signer title cannot exceed 200 characters")
	}
	return nil
}

// IsHexColor reports whether s is a #rgb or #rrggbb color
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
