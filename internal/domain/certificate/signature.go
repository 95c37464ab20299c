package certificate

import (
	"strings"

	"github.com/udes/eexchange/internal/domain/shared"
)

// SignatureProfile is a named signature image reusable across templates and settings
type SignatureProfile struct {
	shared.Entity
	Name     string
	Title    string
	Filename string // object key in the signatures bucket
}

// NewSignatureProfile creates a signature profile
func NewSignatureProfile(name, title, filename string) (*SignatureProfile, error) {
	name = strings.TrimSpace(name)
	filename = strings.TrimSpace(filename)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Signature profile name cannot be empty")
	}
	if filename == "" {
		return nil, shared.NewDomainError("INVALID_FILENAME", "Signature filename cannot be empty")
	}
	if strings.Contains(filename, "..") || strings.HasPrefix(filename, "/") {
		return nil, shared.NewDomainError("INVALID_FILENAME", "Signature filename must be a relative object key")
	}
	return &SignatureProfile{
		Entity:   shared.NewEntity(),
		Name:     name,
		Title:    strings.TrimSpace(title),
		Filename: filename,
	}, nil
}

// SignatureSource records where a resolved signature came from
type SignatureSource string

const (
	SignatureSourceNone        SignatureSource = ""
	SignatureSourceTemplate    SignatureSource = "template"
	SignatureSourceCertificate SignatureSource = "certificate"
	SignatureSourceSettings    SignatureSource = "settings"
)

// ResolveSignature returns the first non-empty signature filename in order:
// the template's signer profile, the certificate's own filename, then the
// settings' default profile. An empty filename means the block is omitted.
func ResolveSignature(templateProfile *SignatureProfile, cert *Certificate, defaultProfile *SignatureProfile) (string, SignatureSource) {
	if templateProfile != nil && strings.TrimSpace(templateProfile.Filename) != "" {
		return strings.TrimSpace(templateProfile.Filename), SignatureSourceTemplate
	}
	if cert != nil && strings.TrimSpace(cert.SignatureFilename) != "" {
		return strings.TrimSpace(cert.SignatureFilename), SignatureSourceCertificate
	}
	if defaultProfile != nil && strings.TrimSpace(defaultProfile.Filename) != "" {
		return strings.TrimSpace(defaultProfile.Filename), SignatureSourceSettings
	}
	return "", SignatureSourceNone
}
