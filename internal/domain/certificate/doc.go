// Package certificate contains the Certificate bounded context.
// It owns the issued certificate records, the branding settings and the
// course or global markup templates used to render them, and the pure rules
// that decide which template, settings and signature apply to a render.
package certificate
