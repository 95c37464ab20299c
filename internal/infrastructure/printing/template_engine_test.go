package printing

import (
	"context"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *TemplateEngine {
	t.Helper()
	store, err := NewLayoutStore("")
	require.NoError(t, err)
	return NewTemplateEngine(store)
}

func TestTemplateEngine_RenderPage(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.RenderPage(context.Background(), &PageData{
		Title:            "Certificado",
		Body:             template.HTML("<h1>María López</h1>"),
		LogoURL:          "/logo-udes.png",
		QRDataURI:        template.URL("data:image/png;base64,AAAA"),
		VerificationCode: "CERT-0001",
		SignatureURL:     "https://storage.example.com/signatures/rector.png",
		SignerName:       "Dirección Académica",
		SignerTitle:      "Universidad de Especialidades",
		PrimaryColor:     template.CSS("#052c4e"),
		SecondaryColor:   template.CSS("#f5a800"),
	})
	require.NoError(t, err)

	assert.Contains(t, out, `id="certificate"`)
	assert.Contains(t, out, "<h1>María López</h1>")
	assert.Contains(t, out, "--primary: #052c4e")
	assert.Contains(t, out, `src="data:image/png;base64,AAAA"`)
	assert.Contains(t, out, "signature-image")
	assert.Contains(t, out, "CERT-0001")
	assert.Contains(t, out, `lang="es"`)
}

func TestTemplateEngine_OmitsMissingSignatureAndQR(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.RenderPage(context.Background(), &PageData{
		Body:             template.HTML("<p>x</p>"),
		VerificationCode: "CERT-0002",
		PrimaryColor:     template.CSS("#052c4e"),
		SecondaryColor:   template.CSS("#f5a800"),
	})
	require.NoError(t, err)

	assert.NotContains(t, out, `class="signature-image"`)
	assert.NotContains(t, out, `class="qr"`)
	assert.NotContains(t, out, `class="logo"`)
	assert.Contains(t, out, "CERT-0002")
}

func TestTemplateEngine_EscapesPlainFields(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.RenderPage(context.Background(), &PageData{
		Body:       template.HTML("<p>x</p>"),
		SignerName: "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestTemplateEngine_Cancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.RenderPage(ctx, &PageData{})
	assert.Error(t, err)
}

func TestTemplateEngine_PicksUpReloadedLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLayoutStore(dir)
	require.NoError(t, err)
	e := NewTemplateEngine(store)

	_, err = e.RenderPage(context.Background(), &PageData{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, PageLayoutFile),
		[]byte(`<div id="certificate">{{.VerificationCode}}</div>`), 0o644))
	require.NoError(t, store.Reload())

	out, err := e.RenderPage(context.Background(), &PageData{VerificationCode: "X-1"})
	require.NoError(t, err)
	assert.Equal(t, `<div id="certificate">X-1</div>`, out)
}

func TestLayoutStore_LegacyFallback(t *testing.T) {
	store, err := NewLayoutStore("")
	require.NoError(t, err)

	legacy := store.Legacy()
	assert.Contains(t, legacy, "{{student_name}}")
	assert.Contains(t, legacy, "{{course_title}}")
	assert.Contains(t, legacy, "{{hours}}")
}

func TestLayoutStore_ExternalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyLayoutFile), []byte("<p>{{student_name}}</p>"), 0o644))

	store, err := NewLayoutStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "<p>{{student_name}}</p>", store.Legacy())
	page, ok := store.Get(PageLayoutFile)
	assert.True(t, ok)
	assert.Contains(t, page, `id="certificate"`)
}
