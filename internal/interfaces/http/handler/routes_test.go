package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	"github.com/udes/eexchange/internal/infrastructure/auth"
	"github.com/udes/eexchange/internal/infrastructure/config"
	"github.com/udes/eexchange/internal/interfaces/http/middleware"
	"github.com/udes/eexchange/internal/interfaces/http/router"
)

const routesTestSecret = "routes-test-secret-at-least-32-chars"

type routesFixture struct {
	engine *gin.Engine
	certs  *MockCertificateService
	admin  *MockAdminService
}

func newRoutesFixture(t *testing.T, verifyLimit int) *routesFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	validator := auth.NewTokenValidator(config.JWTConfig{
		Secret:    routesTestSecret,
		Audience:  "authenticated",
		AdminRole: "admin",
	})
	authMW := middleware.JWTAuthMiddleware(validator, nil)

	f := &routesFixture{
		engine: gin.New(),
		certs:  new(MockCertificateService),
		admin:  new(MockAdminService),
	}
	f.engine.Use(middleware.RequestID())

	certHandler := NewCertificateHandler(f.certs)
	limiter := middleware.NewRateLimiter(ctx, verifyLimit, time.Minute)

	router.NewRouter(f.engine).
		Register(CertificateRoutes(certHandler, authMW)).
		Register(VerifyRoutes(certHandler, middleware.RateLimit(limiter))).
		Register(AdminRoutes(NewAdminHandler(f.admin), authMW, middleware.RequireRole(validator.AdminRole()))).
		Setup()
	return f
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		AppMetadata: auth.AppMetadata{Role: role},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routesTestSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *routesFixture) do(method, target, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRoutes_Listing(t *testing.T) {
	h := NewCertificateHandler(nil)
	pass := func(c *gin.Context) { c.Next() }

	var routes []router.Route
	routes = append(routes, CertificateRoutes(h, pass).Routes("/api/v1")...)
	routes = append(routes, VerifyRoutes(h, nil).Routes("/api/v1")...)
	routes = append(routes, AdminRoutes(NewAdminHandler(nil), pass, pass).Routes("/api/v1")...)

	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Path: "/api/v1/certificates/:id/pdf"})
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Path: "/api/v1/certificates/:id/preview"})
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Path: "/api/v1/verify"})
	assert.Contains(t, routes, router.Route{Method: http.MethodPost, Path: "/api/v1/admin/templates/:id/activate"})
	assert.Contains(t, routes, router.Route{Method: http.MethodPut, Path: "/api/v1/admin/settings"})
	assert.Contains(t, routes, router.Route{Method: http.MethodGet, Path: "/api/v1/admin/signatures/:id"})
	assert.Len(t, routes, 15)
}

func TestRoutes_CertificatesRequireAuth(t *testing.T) {
	f := newRoutesFixture(t, 10)
	id := uuid.New()
	f.certs.On("Preview", mock.Anything, id).Return(&certapp.PreviewResponse{CertificateID: id.String()}, nil)

	w := f.do(http.MethodGet, "/api/v1/certificates/"+id.String()+"/preview", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/certificates/"+id.String()+"/preview", bearer(t, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutes_AdminRequiresRole(t *testing.T) {
	f := newRoutesFixture(t, 10)
	f.admin.On("GetSettings", mock.Anything).Return(&certapp.SettingsResponse{}, nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/admin/settings", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/settings", bearer(t, "student")).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/admin/settings", bearer(t, "admin")).Code)
	f.admin.AssertNumberOfCalls(t, "GetSettings", 1)
}

func TestRoutes_VerifyIsPublicAndLimited(t *testing.T) {
	f := newRoutesFixture(t, 2)
	f.certs.On("Verify", mock.Anything, "CODE1").Return(&certapp.VerificationResponse{Valid: true}, nil)

	for i := 0; i < 2; i++ {
		w := f.do(http.MethodGet, "/api/v1/verify?code=CODE1", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(http.MethodGet, "/api/v1/verify?code=CODE1", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	f.certs.AssertNumberOfCalls(t, "Verify", 2)
}
