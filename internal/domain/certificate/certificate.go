package certificate

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackFilename is used when a certificate has no usable verification code
const FallbackFilename = "Certificado_Participacion.pdf"

const filenamePrefix = "Certificado_Participacion_"

// Recipient holds the student details printed on a certificate
type Recipient struct {
	ProfileID uuid.UUID
	FullName  string
	Email     string
	City      string
}

// Certificate is one issuance per (student, course).
// It is created at course completion and only read by the render flow.
type Certificate struct {
	ID                uuid.UUID
	ProfileID         uuid.UUID
	CourseID          uuid.UUID
	VerificationCode  string
	MD5Hash           string
	IssuedAt          time.Time
	Hours             int
	SignatureFilename string
	Recipient         Recipient
	CourseTitle       string
	CreatedAt         time.Time
}

// DownloadFilename returns the attachment name keyed by the verification code
func (c *Certificate) DownloadFilename() string {
	code := sanitizeCode(c.VerificationCode)
	if code == "" {
		return FallbackFilename
	}
	return filenamePrefix + code + ".pdf"
}

// ContentHash computes the integrity stamp over the issuance fields
func (c *Certificate) ContentHash() string {
	payload := strings.Join([]string{
		c.VerificationCode,
		c.ProfileID.String(),
		c.CourseID.String(),
		c.IssuedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(c.Hours),
	}, "|")
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// HashMatches reports whether the stored stamp matches the record content
func (c *Certificate) HashMatches() bool {
	if c.MD5Hash == "" {
		return false
	}
	return strings.EqualFold(c.MD5Hash, c.ContentHash())
}

// WithRecipient fills missing denormalized recipient fields from a profile
func (c *Certificate) WithRecipient(p *Recipient) {
	if p == nil {
		return
	}
	c.Recipient.ProfileID = p.ProfileID
	if p.FullName != "" {
		c.Recipient.FullName = p.FullName
	}
	if p.Email != "" {
		c.Recipient.Email = p.Email
	}
	if p.City != "" {
		c.Recipient.City = p.City
	}
}

func sanitizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(code) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Course is the minimal course view needed for rendering
type Course struct {
	ID    uuid.UUID
	Title string
	Hours int
}
