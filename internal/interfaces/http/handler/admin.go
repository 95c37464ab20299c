package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	certapp "github.com/udes/eexchange/internal/application/certificate"
)

// AdminService is the administrative surface for templates, branding and signatures
type AdminService interface {
	ListTemplates(ctx context.Context, req certapp.ListTemplatesRequest) (*certapp.ListTemplatesResponse, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error)
	CreateTemplate(ctx context.Context, req certapp.CreateTemplateRequest) (*certapp.TemplateResponse, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req certapp.UpdateTemplateRequest) (*certapp.TemplateResponse, error)
	ActivateTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error)
	DeactivateTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	GetSettings(ctx context.Context) (*certapp.SettingsResponse, error)
	UpdateSettings(ctx context.Context, req certapp.UpdateSettingsRequest) (*certapp.SettingsResponse, error)

	ListSignatureProfiles(ctx context.Context, req certapp.ListSignatureProfilesRequest) (*certapp.ListSignatureProfilesResponse, error)
	GetSignatureProfile(ctx context.Context, id uuid.UUID) (*certapp.SignatureProfileResponse, error)
	CreateSignatureProfile(ctx context.Context, req certapp.CreateSignatureProfileRequest) (*certapp.SignatureProfileResponse, error)
}

// AdminHandler handles template, settings and signature profile administration
type AdminHandler struct {
	BaseHandler
	service AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// =============================================================================
// Templates
// =============================================================================

// ListTemplates godoc
//
//	@ID				listCertificateTemplates
//
//	@Summary		List templates
//	@Description	List certificate templates with paging and filters
//	@Tags			admin-templates
//	@Produce		json
//	@Param			page		query		int		false	"Page"
//	@Param			page_size	query		int		false	"Page size"
//	@Param			search		query		string	false	"Name search"
//	@Param			course_id	query		string	false	"Course ID"
//	@Success		200		{object}	dto.Response{data=[]certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates [get]
func (h *AdminHandler) ListTemplates(c *gin.Context) {
	var req certapp.ListTemplatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.ListTemplates(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.Size)
}

// GetTemplate godoc
//
//	@ID				getCertificateTemplate
//
//	@Summary		Get template
//	@Description	Retrieve a template including its markup
//	@Tags			admin-templates
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200		{object}	dto.Response{data=certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates/{id} [get]
func (h *AdminHandler) GetTemplate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateTemplate godoc
//
//	@ID				createCertificateTemplate
//
//	@Summary		Create template
//	@Description	Create a global or course-scoped template, optionally activating it
//	@Tags			admin-templates
//	@Accept			json
//	@Produce		json
//	@Param			request	body		certapp.CreateTemplateRequest	true	"Template"
//	@Success		201		{object}	dto.Response{data=certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		413		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates [post]
func (h *AdminHandler) CreateTemplate(c *gin.Context) {
	var req certapp.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateTemplate godoc
//
//	@ID				updateCertificateTemplate
//
//	@Summary		Update template
//	@Description	Apply a partial update to the markup or signer
//	@Tags			admin-templates
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Param			request	body		certapp.UpdateTemplateRequest	true	"Changes"
//	@Success		200		{object}	dto.Response{data=certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		413		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates/{id} [put]
func (h *AdminHandler) UpdateTemplate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req certapp.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.UpdateTemplate(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ActivateTemplate godoc
//
//	@ID				activateCertificateTemplate
//
//	@Summary		Activate template
//	@Description	Make the template the active one of its scope
//	@Tags			admin-templates
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200		{object}	dto.Response{data=certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates/{id}/activate [post]
func (h *AdminHandler) ActivateTemplate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.ActivateTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeactivateTemplate godoc
//
//	@ID				deactivateCertificateTemplate
//
//	@Summary		Deactivate template
//	@Description	Remove the template from selection
//	@Tags			admin-templates
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200		{object}	dto.Response{data=certapp.TemplateResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates/{id}/deactivate [post]
func (h *AdminHandler) DeactivateTemplate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeactivateTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteTemplate godoc
//
//	@ID				deleteCertificateTemplate
//
//	@Summary		Delete template
//	@Description	Delete an inactive template
//	@Tags			admin-templates
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		204		"Deleted"
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/templates/{id} [delete]
func (h *AdminHandler) DeleteTemplate(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// =============================================================================
// Settings
// =============================================================================

// GetSettings godoc
//
//	@ID				getCertificateSettings
//
//	@Summary		Get settings
//	@Description	Retrieve the effective branding settings
//	@Tags			admin-settings
//	@Produce		json
//	@Success		200		{object}	dto.Response{data=certapp.SettingsResponse}
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/settings [get]
func (h *AdminHandler) GetSettings(c *gin.Context) {
	resp, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateSettings godoc
//
//	@ID				updateCertificateSettings
//
//	@Summary		Update settings
//	@Description	Replace the branding settings
//	@Tags			admin-settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		certapp.UpdateSettingsRequest	true	"Settings"
//	@Success		200		{object}	dto.Response{data=certapp.SettingsResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req certapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// =============================================================================
// Signature profiles
// =============================================================================

// ListSignatureProfiles godoc
//
//	@ID				listSignatureProfiles
//
//	@Summary		List signature profiles
//	@Description	List signature profiles with paging
//	@Tags			admin-signatures
//	@Produce		json
//	@Param			page		query		int		false	"Page"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200		{object}	dto.Response{data=[]certapp.SignatureProfileResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/signatures [get]
func (h *AdminHandler) ListSignatureProfiles(c *gin.Context) {
	var req certapp.ListSignatureProfilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.ListSignatureProfiles(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.Size)
}

// GetSignatureProfile godoc
//
//	@ID				getSignatureProfile
//
//	@Summary		Get signature profile
//	@Description	Retrieve one signature profile
//	@Tags			admin-signatures
//	@Produce		json
//	@Param			id	path		string	true	"ID"
//	@Success		200		{object}	dto.Response{data=certapp.SignatureProfileResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/signatures/{id} [get]
func (h *AdminHandler) GetSignatureProfile(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetSignatureProfile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateSignatureProfile godoc
//
//	@ID				createSignatureProfile
//
//	@Summary		Create signature profile
//	@Description	Register an uploaded signature image
//	@Tags			admin-signatures
//	@Accept			json
//	@Produce		json
//	@Param			request	body		certapp.CreateSignatureProfileRequest	true	"Profile"
//	@Success		201		{object}	dto.Response{data=certapp.SignatureProfileResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/admin/signatures [post]
func (h *AdminHandler) CreateSignatureProfile(c *gin.Context) {
	var req certapp.CreateSignatureProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.CreateSignatureProfile(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
