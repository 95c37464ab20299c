package certificate

import (
	"html"
	"strings"

	"golang.org/x/text/language"
)

// Token is a placeholder name written as {{token}} in template markup
type Token string

const (
	TokenStudentName      Token = "student_name"
	TokenStudentEmail     Token = "student_email"
	TokenStudentCity      Token = "student_city"
	TokenCourseTitle      Token = "course_title"
	TokenHours            Token = "hours"
	TokenIssuedDate       Token = "issued_date"
	TokenVerificationCode Token = "verification_code"
	TokenSignerName       Token = "signer_name"
	TokenSignerTitle      Token = "signer_title"
)

// AllTokens returns the fixed placeholder set
func AllTokens() []Token {
	return []Token{
		TokenStudentName, TokenStudentEmail, TokenStudentCity,
		TokenCourseTitle, TokenHours, TokenIssuedDate,
		TokenVerificationCode, TokenSignerName, TokenSignerTitle,
	}
}

// Placeholder returns the token in markup form
func (t Token) Placeholder() string {
	return "{{" + string(t) + "}}"
}

// FieldMap maps tokens to their pre-formatted values
type FieldMap map[Token]string

// Signer is the name and title printed under the signature
type Signer struct {
	Name  string
	Title string
}

// BuildFieldMap collects every token value for a certificate.
// Absent fields map to the empty string.
func BuildFieldMap(cert *Certificate, signer Signer, tag language.Tag) FieldMap {
	return FieldMap{
		TokenStudentName:      cert.Recipient.FullName,
		TokenStudentEmail:     cert.Recipient.Email,
		TokenStudentCity:      cert.Recipient.City,
		TokenCourseTitle:      cert.CourseTitle,
		TokenHours:            FormatHours(cert.Hours, tag),
		TokenIssuedDate:       FormatIssuedDate(cert.IssuedAt, tag),
		TokenVerificationCode: cert.VerificationCode,
		TokenSignerName:       signer.Name,
		TokenSignerTitle:      signer.Title,
	}
}

// Substitute replaces every {{token}} of every key in fields with its value.
// Replacement is literal and global; placeholders without a field stay as
// written. When escape is set, values are HTML-escaped before insertion.
func Substitute(markup string, fields FieldMap, escape bool) string {
	if len(fields) == 0 || !strings.Contains(markup, "{{") {
		return markup
	}

	pairs := make([]string, 0, len(fields)*2)
	for token, value := range fields {
		if escape {
			value = html.EscapeString(value)
		}
		pairs = append(pairs, token.Placeholder(), value)
	}
	return strings.NewReplacer(pairs...).Replace(markup)
}

// UnresolvedTokens lists placeholders in markup that fields does not cover.
// Names are matched and reported exactly as written, so "{{ student_name }}"
// is unresolved because Substitute leaves it in place.
func UnresolvedTokens(markup string, fields FieldMap) []string {
	var missing []string
	seen := make(map[string]bool)
	rest := markup
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			break
		}
		name := rest[start+2 : start+2+end]
		rest = rest[start+2+end+2:]
		if strings.TrimSpace(name) == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := fields[Token(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
