package certificate

import (
	"net/url"
	"strings"

	"github.com/udes/eexchange/internal/domain/shared"
)

// VerificationURL builds the QR payload: base plus exactly one code parameter.
// An existing code parameter on base is replaced; other parameters are kept.
func VerificationURL(base, code string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", shared.NewDomainError("INVALID_URL", "Verification base URL cannot be empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", shared.NewDomainError("INVALID_URL", "Verification base URL is malformed")
	}
	q := u.Query()
	q.Del("code")
	encoded := q.Encode()
	if encoded != "" {
		encoded += "&"
	}
	u.RawQuery = encoded + "code=" + url.QueryEscape(code)
	return u.String(), nil
}
