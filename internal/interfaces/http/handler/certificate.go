package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	"github.com/udes/eexchange/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CertificateService is the part of the certificate service used over HTTP
type CertificateService interface {
	Preview(ctx context.Context, id uuid.UUID) (*certapp.PreviewResponse, error)
	Download(ctx context.Context, id uuid.UUID) (*certapp.Document, error)
	Verify(ctx context.Context, code string) (*certapp.VerificationResponse, error)
}

// CertificateHandler serves certificate previews, PDF downloads and public verification
type CertificateHandler struct {
	BaseHandler
	service CertificateService
}

// NewCertificateHandler creates a new CertificateHandler
func NewCertificateHandler(service CertificateService) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// VerifyQuery is the public verification lookup
//
//	@Description	Verification code printed on the certificate
type VerifyQuery struct {
	Code string `form:"code" binding:"required,verification_code" example:"UDES-2026-0001"`
}

// Download godoc
//
//	@ID				downloadCertificatePDF
//
//	@Summary		Download certificate PDF
//	@Description	Render the certificate and stream it as a single-page PDF attachment; 204 when the page has no certificate element
//	@Tags			certificates
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Certificate ID"
//	@Success		200		{file}		binary
//	@Success		204		"Nothing to export"
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/certificates/{id}/pdf [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Download(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, certapp.ErrNothingToExport) {
			logger.FromContext(c.Request.Context()).Warn("Nothing to export",
				zap.String("certificate_id", id.String()))
			h.NoContent(c)
			return
		}
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(doc.Filename))
	c.Header("X-Certificate-Pages", strconv.Itoa(doc.Pages))
	if doc.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}

// Preview godoc
//
//	@ID				previewCertificate
//
//	@Summary		Preview certificate page
//	@Description	Resolve the certificate page; format=html returns the page itself
//	@Tags			certificates
//	@Produce		json
//	@Param			id		path		string	true	"Certificate ID"
//	@Param			format	query		string	false	"html for the raw page"
//	@Success		200		{object}	dto.Response{data=certapp.PreviewResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/certificates/{id}/preview [get]
func (h *CertificateHandler) Preview(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("format") == "html" {
		c.Header("Cache-Control", "private, no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(preview.HTML))
		return
	}
	h.Success(c, preview)
}

// Verify godoc
//
//	@ID				verifyCertificate
//
//	@Summary		Verify certificate
//	@Description	Look up a verification code; unknown codes answer valid=false
//	@Tags			verification
//	@Produce		json
//	@Param			code	query		string	true	"Verification code"
//	@Success		200		{object}	dto.Response{data=certapp.VerificationResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		429		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Router			/verify [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	var q VerifyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), q.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func attachment(filename string) string {
	if filename == "" {
		filename = "certificate.pdf"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return `attachment; filename="certificate.pdf"`
}
