package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/udes/eexchange/internal/interfaces/http/router"
)

// CertificateRoutes creates the authenticated preview and download endpoints
func CertificateRoutes(h *CertificateHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("certificates", "/certificates")
	group.Use(authMiddleware)

	group.GET("/:id/pdf", h.Download)
	group.GET("/:id/preview", h.Preview)

	return group
}

// VerifyRoutes creates the public verification endpoint
func VerifyRoutes(h *CertificateHandler, limiter gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("verify", "/verify")
	if limiter != nil {
		group.Use(limiter)
	}

	group.GET("", h.Verify)

	return group
}

// AdminRoutes creates the administration endpoints, guarded by auth and role
func AdminRoutes(h *AdminHandler, authMiddleware, requireAdmin gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("admin", "/admin")
	group.Use(authMiddleware, requireAdmin)

	templates := group.Group("templates", "/templates")
	templates.GET("", h.ListTemplates)
	templates.POST("", h.CreateTemplate)
	templates.GET("/:id", h.GetTemplate)
	templates.PUT("/:id", h.UpdateTemplate)
	templates.DELETE("/:id", h.DeleteTemplate)
	templates.POST("/:id/activate", h.ActivateTemplate)
	templates.POST("/:id/deactivate", h.DeactivateTemplate)

	settings := group.Group("settings", "/settings")
	settings.GET("", h.GetSettings)
	settings.PUT("", h.UpdateSettings)

	signatures := group.Group("signatures", "/signatures")
	signatures.GET("", h.ListSignatureProfiles)
	signatures.POST("", h.CreateSignatureProfile)
	signatures.GET("/:id", h.GetSignatureProfile)

	return group
}
