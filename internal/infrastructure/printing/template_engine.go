package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CaptureSelector is the CSS selector of the certificate element in the page shell
const CaptureSelector = "#certificate"

// PageData binds a resolved certificate to the page shell
type PageData struct {
	Lang             string
	Title            string
	Body             template.HTML // substituted certificate markup
	LogoURL          string
	QRDataURI        template.URL // empty when QR encoding failed
	VerificationURL  string
	VerificationCode string
	CodeLabel        string
	SignatureURL     string // empty omits the signature image
	SignerName       string
	SignerTitle      string
	PrimaryColor     template.CSS
	SecondaryColor   template.CSS
}

// TemplateEngine renders the certificate page shell with html/template
type TemplateEngine struct {
	layouts *LayoutStore
	funcMap template.FuncMap

	mu     sync.Mutex
	page   *template.Template
	source string
}

// NewTemplateEngine creates an engine backed by a layout store
func NewTemplateEngine(layouts *LayoutStore) *TemplateEngine {
	return &TemplateEngine{
		layouts: layouts,
		funcMap: template.FuncMap{
			"upper": strings.ToUpper,
			"title": func(s string) string { return cases.Title(language.Spanish).String(s) },
			"trim":  strings.TrimSpace,
		},
	}
}

// LegacyLayout returns the fallback certificate markup
func (e *TemplateEngine) LegacyLayout() string {
	return e.layouts.Legacy()
}

// RenderPage renders the full HTML document for capture
func (e *TemplateEngine) RenderPage(ctx context.Context, data *PageData) (string, error) {
	select {
	case <-ctx.Done():
		return "", NewRenderError(ErrCodeTemplateFailed, "render cancelled", ctx.Err())
	default:
	}

	tmpl, err := e.pageTemplate()
	if err != nil {
		return "", err
	}

	if data.Lang == "" {
		data.Lang = "es"
	}
	if data.CodeLabel == "" {
		data.CodeLabel = "Código de verificación"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute page layout", err)
	}
	return buf.String(), nil
}

// pageTemplate parses the shell once and re-parses when the store reloads
func (e *TemplateEngine) pageTemplate() (*template.Template, error) {
	source, ok := e.layouts.Get(PageLayoutFile)
	if !ok {
		return nil, NewRenderError(ErrCodeTemplateFailed, "page layout not loaded", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page != nil && e.source == source {
		return e.page, nil
	}

	tmpl, err := template.New(PageLayoutFile).Funcs(e.funcMap).Parse(source)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse page layout", err)
	}
	e.page = tmpl
	e.source = source
	return tmpl, nil
}
