package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/interfaces/http/dto"
)

func newCertificateRouter(svc CertificateService) *gin.Engine {
	h := NewCertificateHandler(svc)
	r := gin.New()
	r.GET("/certificates/:id/pdf", h.Download)
	r.GET("/certificates/:id/preview", h.Preview)
	r.GET("/verify", h.Verify)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestCertificateHandler_Download(t *testing.T) {
	id := uuid.New()
	pdf := []byte("%PDF-1.3 test")

	t.Run("streams the pdf as an attachment", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).Return(&certapp.Document{
			Filename: "Certificado_Ana_Perez.pdf",
			PDF:      pdf,
			Pages:    1,
			Cached:   true,
		}, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=Certificado_Ana_Perez.pdf`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Equal(t, "1", w.Header().Get("X-Certificate-Pages"))
		assert.Equal(t, pdf, w.Body.Bytes())
		svc.AssertExpectations(t)
	})

	t.Run("non-ascii filenames are encoded", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).Return(&certapp.Document{
			Filename: "Certificado_José_Núñez.pdf",
			PDF:      pdf,
		}, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=utf-8''")
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	})

	t.Run("nothing to export answers 204", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).
			Return(nil, fmt.Errorf("capture: %w", certapp.ErrNothingToExport))

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("unknown certificate answers 404", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w, nil)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("export failure keeps the domain message", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).Return(nil, shared.ErrExportFailed)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w, nil)
		assert.Equal(t, dto.ErrCodeExportFailed, resp.Error.Code)
		assert.Equal(t, shared.ErrExportFailed.Message, resp.Error.Message)
	})

	t.Run("unexpected errors are hidden", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Download", mock.Anything, id).Return(nil, errors.New("connection reset"))

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/pdf")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w, nil)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection reset")
	})

	t.Run("malformed id answers 400", func(t *testing.T) {
		svc := new(MockCertificateService)

		for _, raw := range []string{"abc", uuid.Nil.String()} {
			w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+raw+"/pdf")
			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		}
		svc.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	})
}

func TestCertificateHandler_Preview(t *testing.T) {
	id := uuid.New()
	preview := &certapp.PreviewResponse{
		CertificateID:   id.String(),
		Filename:        "Certificado_Ana.pdf",
		HTML:            "<html><body><div id=\"certificate\">Ana</div></body></html>",
		TemplateName:    "Default",
		TemplateVersion: 3,
		HasQR:           true,
	}

	t.Run("json envelope", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Preview", mock.Anything, id).Return(preview, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/preview")

		assert.Equal(t, http.StatusOK, w.Code)
		var got certapp.PreviewResponse
		resp := decodeResponse(t, w, &got)
		assert.True(t, resp.Success)
		assert.Equal(t, preview.HTML, got.HTML)
		assert.Equal(t, 3, got.TemplateVersion)
		assert.True(t, got.HasQR)
	})

	t.Run("raw html", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Preview", mock.Anything, id).Return(preview, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/preview?format=html")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, preview.HTML, w.Body.String())
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Preview", mock.Anything, id).Return(nil, shared.ErrForbidden)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/certificates/"+id.String()+"/preview")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCertificateHandler_Verify(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Verify", mock.Anything, "ABC-123").Return(&certapp.VerificationResponse{
			Valid:            true,
			VerificationCode: "ABC-123",
			HashMatches:      true,
			RecipientName:    "Ana Pérez",
		}, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/verify?code=ABC-123")

		assert.Equal(t, http.StatusOK, w.Code)
		var got certapp.VerificationResponse
		decodeResponse(t, w, &got)
		assert.True(t, got.Valid)
		assert.Equal(t, "Ana Pérez", got.RecipientName)
	})

	t.Run("unknown code is still 200", func(t *testing.T) {
		svc := new(MockCertificateService)
		svc.On("Verify", mock.Anything, "nope").Return(&certapp.VerificationResponse{
			Valid:            false,
			VerificationCode: "nope",
		}, nil)

		w := serve(newCertificateRouter(svc), http.MethodGet, "/verify?code=nope")

		assert.Equal(t, http.StatusOK, w.Code)
		var got certapp.VerificationResponse
		decodeResponse(t, w, &got)
		assert.False(t, got.Valid)
	})

	t.Run("rejected codes never reach the service", func(t *testing.T) {
		svc := new(MockCertificateService)
		r := newCertificateRouter(svc)

		for _, target := range []string{"/verify", "/verify?code=", "/verify?code=a%20b", "/verify?code=%3Cscript%3E"} {
			w := serve(r, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
			resp := decodeResponse(t, w, nil)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code, target)
		}
		svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})
}
